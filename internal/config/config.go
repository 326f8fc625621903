package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env           string              `yaml:"env" env-default:"development"` // environment
	HTTPServer    HTTPServerConfig    `yaml:"http_server"`
	Database      DatabaseConfig      `yaml:"database"`
	JWT           JWTConfig           `yaml:"jwt"`
	Migrations    MigrationsConfig    `yaml:"migrations"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Uploads       UploadsConfig       `yaml:"uploads"`
	Events        EventsConfig        `yaml:"events"`
	Mail          MailConfig          `yaml:"mail"`
}

// HTTPServerConfig структура http сервера
type HTTPServerConfig struct {
	Address     string        `yaml:"address" env-default:"localhost:5000"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// DatabaseConfig структура по работе с БД
type DatabaseConfig struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"-" env:"DB_PASSWORD" env-required:"true"`
	Name     string `yaml:"name" env-required:"true"`
}

// JWTConfig настройка jwt
type JWTConfig struct {
	Secret   string `yaml:"-" env:"JWT_SECRET" env-required:"true"`
	TokenTTL int    `yaml:"token_ttl" env-default:"60"`
}

type MigrationsConfig struct {
	Path string `yaml:"path" env-default:"./migrations"`
}

// NotificationsConfig настройка потока уведомлений продавцам
type NotificationsConfig struct {
	// Keepalive задаёт период комментариев-пингов в потоке, 0 отключает
	Keepalive time.Duration `yaml:"keepalive" env-default:"0s"`
	// BindIdentity требует JWT владельца потока. По умолчанию выключено,
	// и подписаться на поток любого пользователя может кто угодно.
	BindIdentity bool `yaml:"bind_identity" env-default:"false"`
}

// UploadsConfig описывает, куда складывать картинки объявлений
type UploadsConfig struct {
	Dir     string `yaml:"dir" env-default:"./uploads"`
	MaxSize int64  `yaml:"max_size" env-default:"5242880"`
}

// EventsConfig выбирает журнал событий заказов: none, file или kafka
type EventsConfig struct {
	Sink    string `yaml:"sink" env-default:"none"`
	Dir     string `yaml:"dir" env-default:"./data/events"`
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic" env-default:"campuskart.orders"`
}

// MailConfig настройка SMTP для писем покупателям
type MailConfig struct {
	Host     string `yaml:"host" env-default:"smtp.gmail.com"`
	Port     int    `yaml:"port" env-default:"587"`
	Username string `yaml:"username" env:"APP_EMAIL"`
	Password string `yaml:"-" env:"APP_EMAIL_PASS"`
	From     string `yaml:"from" env:"APP_EMAIL"`
	Support  string `yaml:"support" env:"SUPPORT_EMAIL"`
}

// MustLoad - если не загружаем - паникуем
func MustLoad() *Config {
	// .env необязателен, переменные окружения могут прийти и снаружи
	_ = godotenv.Load()

	configPath := fetchConfigPath()
	if configPath == "" {
		log.Fatal("CONFIG_PATH not exists")
	}
	return MustLoadByPath(configPath)
}

func fetchConfigPath() string {
	var path string

	flag.StringVar(&path, "config", "", "path to config file")
	flag.Parse()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}

func MustLoadByPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("can't read config file %s: %v", configPath, err)
	}

	return &cfg
}
