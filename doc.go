// Package filegate provides a small HTTP-facing gateway over an object store.
//
// The gateway exposes three operations against a single, fixed bucket:
// upload an object, list every object, and mint a time-limited presigned
// download URL. All storage work is delegated to an ObjectStore; the gateway
// keeps no local copy of object contents or metadata.
//
// # Key Components
//
//   - Gateway: validates input and forwards each operation to the store
//   - ObjectStore: backend capability set (bucket check/create, put, list, presign)
//   - MetaDataRepo: metadata persistence used by the local backend (PostgreSQL, SQLite)
//
// # Backends
//
//   - minio: any S3-compatible service through minio-go
//   - local: a directory tree plus a metadata table, with presigned URLs served
//     by the gateway itself
//
// # Example Usage
//
//	store, err := minio.NewStore(&minio.Config{Endpoint: "127.0.0.1:9000", ...})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	gw, err := filegate.NewGateway(store, filegate.GatewayConfig{Bucket: "files"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := gw.Prepare(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	obj, err := gw.Upload(ctx, filegate.PutObject{Name: "report.pdf", ContentType: "application/pdf", Size: n}, r)
//	url, err := gw.PresignDownload(ctx, "report.pdf")
//
// See the http package for the REST surface.
package filegate
