// Command sweetshop runs the sweet shop inventory API and its operator tasks.
//
//	@title						Sweetshop Inventory API
//	@version					1.0
//	@description				Inventory backend for a sweet shop: identities, catalog and atomic stock changes.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the JWT.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
