package appservice

// Site is the management plane representation of a web app or one of its
// deployment slots.
type Site struct {
	Id         string          `json:"id"`
	Name       string          `json:"name"`
	Kind       string          `json:"kind"`
	Location   string          `json:"location"`
	Sku        *SkuDescription `json:"sku,omitempty"`
	Properties SiteProperties  `json:"properties"`
}

// SkuDescription names the pricing tier applied when a site is created.
type SkuDescription struct {
	Name string `json:"name,omitempty"`
}

type SiteProperties struct {
	State           string      `json:"state"`
	DefaultHostName string      `json:"defaultHostName"`
	ServerFarmId    string      `json:"serverFarmId"`
	SiteConfig      *SiteConfig `json:"siteConfig,omitempty"`
}

type SiteConfig struct {
	JavaVersion    string            `json:"javaVersion,omitempty"`
	JavaContainer  string            `json:"javaContainer,omitempty"`
	LinuxFxVersion string            `json:"linuxFxVersion,omitempty"`
	AppCommandLine string            `json:"appCommandLine,omitempty"`
	AppSettings    []NameValuePair `json:"appSettings,omitempty"`
}

type NameValuePair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type SiteLogsConfig struct {
	ApplicationLogs *ApplicationLogsConfig `json:"applicationLogs,omitempty"`
	HttpLogs        *HttpLogsConfig        `json:"httpLogs,omitempty"`
}

type ApplicationLogsConfig struct {
	FileSystem struct {
		Level string `json:"level"`
	} `json:"fileSystem"`
}

type HttpLogsConfig struct {
	FileSystem struct {
		RetentionInMb   int `json:"retentionInMb"`
		RetentionInDays int `json:"retentionInDays"`
	} `json:"fileSystem"`
}

// SiteCollection is the paged response shape returned by list operations.
type SiteCollection struct {
	Value    []Site `json:"value"`
	NextLink string `json:"nextLink,omitempty"`
}
