package config

import "tenderdesk/entity"

type Core interface {
	Config() entity.PublicConfig
}
