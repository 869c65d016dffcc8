package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	Telegram struct {
		ApiKey  string `yaml:"api_key" env-default:""`
		AdminId int64  `yaml:"admin_id" env-default:"0"`
		BotName string `yaml:"bot_name" env-default:"TenderDeskBot"`
		Enabled bool   `yaml:"enabled" env-default:"false"`
	} `yaml:"telegram"`
	Mongo struct {
		Enabled     bool   `yaml:"enabled" env-default:"false"`
		Host        string `yaml:"host" env-default:"127.0.0.1"`
		Port        string `yaml:"port" env-default:"27017"`
		User        string `yaml:"user" env-default:"admin"`
		Password    string `yaml:"password" env-default:"pass"`
		Database    string `yaml:"database" env-default:"tenderdesk"`
		ExpiredDays int    `yaml:"expired_days" env-default:"7"`
	} `yaml:"mongo"`
	Backend struct {
		BaseURL string        `yaml:"base_url" env:"BACKEND_URL" env-default:"http://127.0.0.1:8000/api"`
		Timeout time.Duration `yaml:"timeout" env-default:"15s"`
	} `yaml:"backend"`
	Upload struct {
		CloudName string        `yaml:"cloud_name" env:"CLOUDINARY_CLOUD_NAME" env-default:""`
		Preset    string        `yaml:"preset" env:"CLOUDINARY_UPLOAD_PRESET" env-default:""`
		BaseURL   string        `yaml:"base_url" env-default:"https://api.cloudinary.com/v1_1"`
		MaxSize   int64         `yaml:"max_size" env-default:"10485760"`
		Timeout   time.Duration `yaml:"timeout" env-default:"60s"`
	} `yaml:"upload"`
	Wizard struct {
		CooldownSeconds int           `yaml:"cooldown_seconds" env-default:"30"`
		ResetDelay      time.Duration `yaml:"reset_delay" env-default:"2s"`
		DeadlineYears   int           `yaml:"deadline_years" env-default:"2"`
		MaxBudget       float64       `yaml:"max_budget" env-default:"100000000"`
		DefaultCountry  string        `yaml:"default_country" env-default:"+974"`
		IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"30m"`
		TimeZone        string        `yaml:"time_zone" env-default:"Asia/Qatar"`
	} `yaml:"wizard"`
	Recaptcha struct {
		SiteKey string `yaml:"site_key" env:"NEXT_PUBLIC_RECAPTCHA_SITE_KEY" env-default:""`
	} `yaml:"recaptcha"`
	Listen struct {
		BindIP  string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port    string `yaml:"port" env-default:"9100"`
		Timeout int    `yaml:"timeout" env-default:"90"`
	} `yaml:"listen"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}

// Default returns a configuration built from defaults and the environment
// only, for tools that run without a config file.
func Default() (*Config, error) {
	conf := &Config{}
	if err := cleanenv.ReadEnv(conf); err != nil {
		return nil, err
	}
	return conf, nil
}
