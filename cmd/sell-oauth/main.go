package main

import "github.com/gematik/sell-oauth/cmd/sell-oauth/cmd"

func main() {
	cmd.Execute()
}
