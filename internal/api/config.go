package api

type Config struct {
	Addr    string `mapstructure:"addr"`
	Service string `mapstructure:"service"`
}
