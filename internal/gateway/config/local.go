package config

// localS3Config points at the MinIO container of the local compose setup.
// Each value can still be overridden from the environment.
func localS3Config() S3Config {
	return S3Config{
		Endpoint:  firstNonEmpty(env("FLOW_S3_ENDPOINT"), "minio:9000"),
		Region:    firstNonEmpty(env("FLOW_S3_REGION"), "us-east-1"),
		AccessKey: firstNonEmpty(env("FLOW_S3_ACCESS_KEY"), env("MINIO_ROOT_USER"), "flowcanvas"),
		SecretKey: firstNonEmpty(env("FLOW_S3_SECRET_KEY"), env("MINIO_ROOT_PASSWORD"), "flowcanvas123"),
		Bucket:    firstNonEmpty(env("FLOW_S3_BUCKET"), "flowcanvas-flows"),
		UseSSL:    false,
	}
}
