package config

import "github.com/kaytu-io/kaytu-util/pkg/koanf"

type Marketplace struct {
	BaseURL    string `json:"base_url" koanf:"base_url"`
	APIVersion string `json:"api_version" koanf:"api_version"`
	APIToken   string `json:"api_token" koanf:"api_token"`
}

type SendGrid struct {
	APIKey     string `json:"api_key" koanf:"api_key"`
	Sender     string `json:"sender" koanf:"sender"`
	SenderName string `json:"sender_name" koanf:"sender_name"`
	OpsEmail   string `json:"ops_email" koanf:"ops_email"`
}

type NATS struct {
	URL string `json:"url" koanf:"url"`
}

type FulfillmentConfig struct {
	Postgres    koanf.Postgres     `json:"postgres" koanf:"postgres"`
	Http        koanf.HttpServer   `json:"http" koanf:"http"`
	Account     koanf.KaytuService `json:"account" koanf:"account"`
	Marketplace Marketplace        `json:"marketplace" koanf:"marketplace"`
	SendGrid    SendGrid           `json:"sendgrid" koanf:"sendgrid"`
	NATS        NATS               `json:"nats" koanf:"nats"`
}
