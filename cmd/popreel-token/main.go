// Command popreel-token signs a bearer token for local development
package main

import (
	"flag"
	"fmt"

	"popreel/internal/adapters/identity"
	"popreel/internal/platform/config"
	"popreel/internal/platform/logger"
	pnet "popreel/internal/platform/net"
)

func main() {
	l := logger.Get()

	var (
		fUID   = flag.String("uid", "", "user id (token subject)")
		fName  = flag.String("name", "", "display name claim")
		fEmail = flag.String("email", "", "email claim")
		fPhoto = flag.String("photo", "", "picture claim")
	)
	flag.Parse()

	idm := identity.New(identity.FromConfig(config.New()))
	tok, exp, err := idm.Issue(pnet.Principal{UID: *fUID, Name: *fName, Email: *fEmail, Photo: *fPhoto})
	if err != nil {
		l.Fatal().Err(err).Msg("issue token")
	}
	l.Info().Str("uid", *fUID).Time("expires", exp).Msg("token issued")
	fmt.Println(tok)
}
