package bridge

import (
	"fmt"
	"strings"
)

// Script renders the SDK injected into every generated app. The script
// namespaces every storage operation with the app's identity and fires a
// one-time blackbird:ready event once the API is attached, so app code can
// wait for the bridge instead of racing it.
func Script(appID string) string {
	return fmt.Sprintf(sdkTemplate, jsEscape(sanitizeNamespace(appID)))
}

// jsEscape makes a value safe inside a single-quoted JS string literal.
func jsEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "</", `<\/`)
	return r.Replace(s)
}

const sdkTemplate = `<script>
(function() {
    'use strict';

    const APP_ID = '%s';
    const STORAGE_PREFIX = 'blackbird_app_' + APP_ID + '_';

    window.blackbird = {
        // Storage API - persistent, app-isolated storage
        storage: {
            get(key) {
                try {
                    const raw = localStorage.getItem(STORAGE_PREFIX + key);
                    if (raw === null) return null;
                    try {
                        return JSON.parse(raw);
                    } catch {
                        return raw;
                    }
                } catch (e) {
                    console.error('[Blackbird] Storage get error:', e);
                    return null;
                }
            },

            set(key, value) {
                try {
                    const serialized = typeof value === 'string' ? value : JSON.stringify(value);
                    localStorage.setItem(STORAGE_PREFIX + key, serialized);
                } catch (e) {
                    console.error('[Blackbird] Storage set error:', e);
                    throw e;
                }
            },

            delete(key) {
                try {
                    localStorage.removeItem(STORAGE_PREFIX + key);
                } catch (e) {
                    console.error('[Blackbird] Storage delete error:', e);
                }
            },

            keys() {
                try {
                    const keys = [];
                    for (let i = 0; i < localStorage.length; i++) {
                        const key = localStorage.key(i);
                        if (key && key.startsWith(STORAGE_PREFIX)) {
                            keys.push(key.slice(STORAGE_PREFIX.length));
                        }
                    }
                    keys.sort();
                    return keys;
                } catch (e) {
                    console.error('[Blackbird] Storage keys error:', e);
                    return [];
                }
            },

            clear() {
                try {
                    const keysToRemove = [];
                    for (let i = 0; i < localStorage.length; i++) {
                        const key = localStorage.key(i);
                        if (key && key.startsWith(STORAGE_PREFIX)) {
                            keysToRemove.push(key);
                        }
                    }
                    keysToRemove.forEach(key => localStorage.removeItem(key));
                } catch (e) {
                    console.error('[Blackbird] Storage clear error:', e);
                }
            }
        },

        // App metadata
        app: {
            id: APP_ID
        }
    };

    // Signal SDK is ready
    window.dispatchEvent(new Event('blackbird:ready'));
})();
</script>`
