package http

import (
	"net"
	nethttp "net/http"
	"strings"

	"github.com/marmos91/dittozip/pkg/policy"
	"github.com/marmos91/dittozip/pkg/store/catalog"
)

// Identity headers set by the authenticating proxy in front of the adapter.
const (
	HeaderUser   = "X-Dittozip-User"
	HeaderRoles  = "X-Dittozip-Roles"
	HeaderGroups = "X-Dittozip-Groups"
	HeaderGrants = "X-Dittozip-Grants"
)

// identityFromRequest builds the acting identity from the identity headers.
// A request without HeaderUser is anonymous.
func identityFromRequest(r *nethttp.Request) policy.Identity {
	identity := policy.Identity{
		UserID: strings.TrimSpace(r.Header.Get(HeaderUser)),
		Roles:  splitList(r.Header.Values(HeaderRoles)),
		Groups: splitList(r.Header.Values(HeaderGroups)),
	}
	for _, grant := range splitList(r.Header.Values(HeaderGrants)) {
		identity.Grants = append(identity.Grants, catalog.DatasetID(grant))
	}
	return identity
}

// splitList flattens comma separated header values, dropping blanks.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// clientKey identifies the client for rate limiting: the acting user when
// known, the remote host otherwise.
func clientKey(r *nethttp.Request) string {
	if user := strings.TrimSpace(r.Header.Get(HeaderUser)); user != "" {
		return "user:" + user
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}
