package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/portalteam/approvalflow/pkg/approvalflow"
)

func main() {
	approvalflow.SetupLogger()

	mux := http.NewServeMux()
	if err := approvalflow.Start(mux); err != nil {
		slog.Error("approvalflow exited", "error", err)
		os.Exit(1)
	}
}
