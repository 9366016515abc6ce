package google

import gmail "google.golang.org/api/gmail/v1"

// DefaultScopes are the Gmail scopes requested when the caller does not
// specify any: enough to search, read and send mail, nothing more.
var DefaultScopes = []string{
	gmail.GmailSendScope,
	gmail.GmailReadonlyScope,
}

// scopesCover reports whether every requested scope is present in the
// persisted set. A credential holding more scopes than requested is
// accepted; one holding fewer is not.
func scopesCover(persisted, requested []string) bool {
	have := make(map[string]bool, len(persisted))
	for _, s := range persisted {
		have[s] = true
	}
	for _, s := range requested {
		if !have[s] {
			return false
		}
	}
	return true
}
