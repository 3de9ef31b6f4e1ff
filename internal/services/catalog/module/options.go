package module

import (
	"visitagg/internal/platform/config"
	"visitagg/internal/services/catalog/domain"
)

// FromConfig reads the catalog options from config with CORE_CATALOG_ prefix
func FromConfig(cfg config.Conf) domain.Options {
	cc := cfg.Prefix("CORE_CATALOG_")
	return domain.Options{
		Source: domain.Kind(cc.MayEnum("SOURCE", string(domain.KindNone), domain.Kinds...)),
		Table:  cc.MayString("TABLE", "pages"),
		Column: cc.MayString("COLUMN", "uri"),
		File:   cc.MayString("FILE", ""),
	}
}
