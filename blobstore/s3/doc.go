// Package s3 stores fingerprint files in Amazon S3.
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("fingerprints/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
// New reads credentials from the default AWS configuration chain. Reads
// are ranged GETs; Create streams a multipart upload and Put sends a
// single request with a CRC32C checksum.
package s3
