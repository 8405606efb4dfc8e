package main

import (
	"context"
	"fmt"
	"os"

	"github.com/AlibekovAA/community-board/internal/common/bootstrap"
)

func main() {
	app, err := bootstrap.NewAuthApp(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start auth service: %v\n", err)
		os.Exit(1)
	}
	defer app.Log.Close()

	app.Run()
}
