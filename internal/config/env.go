package config

// Environment variables read by ApplyEnv.
const (
	EnvStoreDriver   = "EVENTSTORE_DRIVER"
	EnvStoreDSN      = "EVENTSTORE_DSN"
	EnvStoreTable    = "EVENTSTORE_TABLE"
	EnvDatasetBucket = "SMARTBID_DATASET_BUCKET"
	EnvDatasetRoot   = "SMARTBID_DATASET_ROOT"
	EnvDictionaryDir = "SMARTBID_DICTIONARY_DIR"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides file values with non-empty environment variables.
func (c *Config) ApplyEnv(lookup LookupFunc) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(&c.Store.Driver, EnvStoreDriver)
	set(&c.Store.DSN, EnvStoreDSN)
	set(&c.Store.Table, EnvStoreTable)
	set(&c.Dataset.Remote.Bucket, EnvDatasetBucket)
	set(&c.Dataset.Local.Root, EnvDatasetRoot)
	set(&c.Dictionary.Dir, EnvDictionaryDir)
}
