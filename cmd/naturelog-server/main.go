package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"naturelog-go/internal/bootstrap"
)

func main() {
	fmt.Printf("[%s] [INFO] starting naturelog-server...\n", time.Now().Format("2006-01-02 15:04:05.000"))
	if err := bootstrap.RunServer(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "naturelog-server failed: %v\n", err)
		os.Exit(1)
	}
}
