// Command backend is a stand-in for the storefront application during local
// development. It echoes the path it was asked to render and the tenant
// context the router attached.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"
)

func main() {
	port := os.Getenv("BACKEND_PORT")
	if port == "" {
		port = "3000"
	}

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		tenant := map[string]string{}
		for k, v := range r.Header {
			if strings.HasPrefix(strings.ToLower(k), "x-tenant-") {
				tenant[k] = strings.Join(v, ",")
			}
		}

		response := map[string]interface{}{
			"message":        "Hello from storefront backend!",
			"path":           r.URL.Path,
			"query":          r.URL.RawQuery,
			"method":         r.Method,
			"forwarded_host": r.Header.Get("X-Forwarded-Host"),
			"tenant":         tenant,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)

		slog.Info("rendered", "method", r.Method, "path", r.URL.Path, "tenant_id", r.Header.Get("X-Tenant-Id"))
	})

	slog.Info("storefront backend starting", "port", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		slog.Error("backend stopped", "error", err)
		os.Exit(1)
	}
}
