// Package gmail is a thin facade over the Gmail API client library.
//
// It forwards send/list/get calls to google.golang.org/api/gmail/v1 and
// converts the API's loosely typed message structures into validated
// records at the boundary. Credentials are attached through an
// oauth2.TokenSource, normally the one handed out by the credential
// manager so every call carries a token that was just ensured valid.
package gmail
