package main

import (
	"github.com/lunixbochs/amicorn/go/cmd"

	_ "github.com/lunixbochs/amicorn/go/cmd/files"
	_ "github.com/lunixbochs/amicorn/go/cmd/makelib"
	_ "github.com/lunixbochs/amicorn/go/cmd/vol"
)

func main() { cmd.Main() }
