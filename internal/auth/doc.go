// Package auth resolves the person behind a request and the buildings they
// may act on.
//
// Identities arrive as HS256-signed JWTs issued elsewhere; the subject is
// the person id. A person seen for the first time is stored with a single
// building whose id equals the person id. Buildings scope every device,
// room and account, and name the private push channels a person may join.
package auth
