// Package assets publishes the client bundle and static files to a
// storage backend.
//
// A Store holds published objects under slash-separated keys. DiskStore
// covers development and single-host deployments; S3Store covers
// CDN-backed production and is what the publish command drives.
//
// Sync walks a build directory, fingerprints each file with a content
// hash, and puts the results:
//
//	store := assets.NewS3Store(client, "my-bucket", "app/")
//	manifest, err := assets.Sync(ctx, store, "dist")
//	// dist/kinet.js -> app/kinet.a1b2c3d4.js
//
// The manifest records source path to published key and round-trips
// through manifest.json, so a server can resolve fingerprinted URLs:
//
//	manifest, _ := assets.Load("dist/manifest.json")
//	url, _ := store.URL(ctx, manifest.Resolve("kinet.js"))
//
// Prune removes objects older than a cutoff, so superseded fingerprinted
// bundles age out of the bucket.
package assets
