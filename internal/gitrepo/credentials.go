package gitrepo

import "strings"

const (
	schemeMarkerConstant       = "//"
	credentialsSuffixConstant  = "@"
	credentialsInsertionOffset = len(schemeMarkerConstant)
)

// CredentialsURL inserts token immediately after the first "//" of cloneURL,
// turning scheme://host/path into scheme://token@host/path.
//
// The URL shape is not validated. When the marker is absent the token lands
// after the first character and the result is malformed.
func CredentialsURL(cloneURL string, token string) string {
	splitIndex := strings.Index(cloneURL, schemeMarkerConstant) + credentialsInsertionOffset
	if splitIndex > len(cloneURL) {
		splitIndex = len(cloneURL)
	}
	return cloneURL[:splitIndex] + token + credentialsSuffixConstant + cloneURL[splitIndex:]
}
