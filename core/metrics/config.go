package metrics

// Config defines settings for metrics sinks.
type Config struct {
	// Prometheus enables the in-process Prometheus sink.
	Prometheus bool `json:"prometheus"`
	// PrometheusAddr is the scrape endpoint listen address.
	PrometheusAddr string `json:"prometheus_addr"`
	// Influx* configure the InfluxDB sink; an empty URL disables it.
	InfluxURL    string `json:"influx_url"`
	InfluxToken  string `json:"influx_token"`
	InfluxOrg    string `json:"influx_org"`
	InfluxBucket string `json:"influx_bucket"`
	// EmissionFactorKgPerTonKm converts routed ton-km into CO2 kilograms.
	EmissionFactorKgPerTonKm float64 `json:"emission_factor_kg_per_ton_km"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = ":9090"
	}
	if c.EmissionFactorKgPerTonKm == 0 {
		c.EmissionFactorKgPerTonKm = 0.022
	}
}
