package configuration

type Configuration struct {
	HttpAddr          string  `usage:"HTTP address"`
	MemoryLimit       int64   `usage:"max bytes held by all collections, 0 means unlimited"`
	ExportDir         string  `usage:"directory where collections are exported, empty disables exports"`
	ExportRate        float64 `usage:"max exports per second"`
	ExportCompression string  `usage:"export compression: none | gzip | zstd | lz4"`
	EnableCompression bool    `usage:"gzip responses when the client accepts it"`
	ApiKey            string  `usage:"API key, empty disables authentication"`
	ApiSecret         string  `usage:"API secret"`
	Version           bool    `usage:"show version and exit"`
	ShowBanner        bool    `usage:"show big banner"`
	ShowConfig        bool    `usage:"print config"`
}

func Default() *Configuration {
	return &Configuration{
		HttpAddr:          "127.0.0.1:8080",
		MemoryLimit:       0,
		ExportDir:         "",
		ExportRate:        10,
		ExportCompression: "lz4",
		EnableCompression: true,
		ShowBanner:        true,
		ShowConfig:        false,
	}
}
