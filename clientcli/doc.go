// Package clientcli talks to a filegate gateway over HTTP.
//
// Client wraps the gateway's three routes: Upload streams files as
// multipart/form-data to POST /upload, List reads GET /files, and PresignURL
// asks GET /download/{name} for a short-lived URL. Download combines the last
// one with a plain GET of the returned URL.
//
//	client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:3000"})
//	if err != nil {
//		return err
//	}
//	results, err := client.Upload(ctx, clientcli.UploadOptions{LocalPath: "report.pdf"})
//
// Gateways can be saved as named profiles in ~/.filegate/config.yaml; see
// ConfigFile. Formatter renders results for the filegate-cli command as text
// or JSON.
package clientcli
