// Package assets stores generated scene media and returns the reference shown
// to viewers: a data URI (inline), a local file path (file), or a presigned
// URL into an S3-compatible bucket (minio).
package assets
