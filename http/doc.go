// Package http exposes a filegate.Gateway over HTTP.
//
// # Routes
//
//	POST /upload            multipart field "file"; 200 {"message":"upload completed","name":...}
//	GET  /files             200 [{"name","size","lastModified"}]; ?stream=true streams the array
//	GET  /download/{name}   200 {"url": <presigned GET URL>}
//	GET  /objects/*         signed object bytes (local backend only)
//	GET  /healthz           200 {"status":"ok"}
//	GET  /metrics           Prometheus text format, when Metrics is set
//
// Errors are JSON bodies of the form {"error": code, "message": text}:
//
//	filegate.ErrInvalidInput  -> 400
//	filegate.ErrUnauthorized  -> 403
//	filegate.ErrNotFound      -> 404
//	filegate.ErrUnavailable   -> 500
//
// Download failures follow HandlerConfig.DownloadErrors: "precise" uses the
// table above, "conflate" answers every failure with 404.
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{
//	    CORS:    http.CORSConfig{Enabled: true, AllowedOrigins: []string{"*"}},
//	    Metrics: http.NewMetrics(),
//	}, gateway)
//	server := &nethttp.Server{Addr: ":3000", Handler: handler.Router()}
package http
