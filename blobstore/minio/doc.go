// Package minio stores fingerprint files on MinIO and other S3-compatible
// servers (Ceph, Garage, SeaweedFS) through the MinIO client.
//
//	store, err := minio.Dial(minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	}, "fingerprints", "chembl/")
//
// Reads are ranged GETs; Create streams an upload of unknown length.
package minio
