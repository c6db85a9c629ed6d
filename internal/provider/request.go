package provider

// systemPreamble instructs the model to emit a self-contained HTML app.
// It is prepended to every generation request regardless of provider.
const systemPreamble = `You are Blackbird Workbench. You build interactive HTML/JS/CSS apps.

RULES:
1. Respond ONLY with HTML code. No markdown, no explanations.
2. Output a complete HTML document with embedded <style> and <script>.
3. IMPORTANT: Do NOT include any body styling (background, color, font-family, margin, padding). The parent app injects theme CSS automatically.
4. Use CSS variables: --bg, --bg-secondary, --text, --text-muted, --border, --accent, --surface
5. Include a <title> tag.
6. End with: [[app_tags: Tag1, Tag2]]

Example structure:
<!DOCTYPE html>
<html>
<head>
    <title>My App</title>
    <style>
        .container { /* your styles using var(--text), var(--bg), etc */ }
    </style>
</head>
<body>
    <div class="container">...</div>
    <script>// your code</script>
</body>
</html>
[[app_tags: Utility]]`

const defaultMaxTokens = 4096

// NewChatRequest shapes an ordered conversation into the unified request:
// the fixed system preamble, the prior history, then the new user prompt.
func NewChatRequest(history []Message, prompt string) *ChatRequest {
	msgs := make([]Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: RoleUser, Content: prompt})
	return &ChatRequest{
		Messages:     msgs,
		SystemPrompt: systemPreamble,
		MaxTokens:    defaultMaxTokens,
	}
}

// wireMessages flattens the request for providers whose API has no separate
// system slot: the preamble travels as a leading user message, matching the
// hosted service's accepted shape.
func wireMessages(req *ChatRequest) []Message {
	if req.SystemPrompt == "" {
		return req.Messages
	}
	msgs := make([]Message, 0, len(req.Messages)+1)
	msgs = append(msgs, Message{Role: RoleUser, Content: req.SystemPrompt})
	msgs = append(msgs, req.Messages...)
	return msgs
}
