// Package token creates and verifies the signed bearer tokens used by the
// session service. Access and refresh tokens share one wire format and are
// told apart only by the class claim; callers must check the class with
// [Manager.RequireClass] before trusting a token's subject.
package token
