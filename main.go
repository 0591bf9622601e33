package main

import "github.com/wormhole-demo/nft-receiver/cmd"

func main() {
	cmd.Execute()
}
