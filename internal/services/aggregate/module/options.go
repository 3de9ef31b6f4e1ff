package module

import (
	"visitagg/internal/core/linereader"
	"visitagg/internal/platform/config"
	"visitagg/internal/services/aggregate/domain"
)

// FromConfig reads the aggregation options from config with CORE_AGG_ prefix
// unset knobs keep their domain.Defaults value
func FromConfig(cfg config.Conf) domain.Options {
	def := domain.Defaults()
	ag := cfg.Prefix("CORE_AGG_")
	return domain.Options{
		Strategy:          domain.Strategy(ag.MayEnum("STRATEGY", string(def.Strategy), domain.Strategies...)),
		Workers:           ag.MayInt("WORKERS", def.Workers),
		ChunkSize:         int(ag.MayBytes("CHUNK_SIZE", int64(def.ChunkSize))),
		Buckets:           ag.MayInt("BUCKETS", def.Buckets),
		BucketParallelism: ag.MayInt("BUCKET_PARALLELISM", def.BucketParallelism),
		PrefixLen:         ag.MayInt("PREFIX_LEN", def.PrefixLen),
		YearFrom:          ag.MayInt("YEAR_FROM", def.YearFrom),
		YearTo:            ag.MayInt("YEAR_TO", def.YearTo),
		FinalLine:         ag.MayEnum("FINAL_LINE", def.FinalLine, linereader.FinalProcess.String(), linereader.FinalDrop.String()),
		ScratchDir:        ag.MayString("SCRATCH_DIR", def.ScratchDir),
		Discover:          ag.MayBool("DISCOVER", def.Discover),
		Timeout:           ag.MayDuration("TIMEOUT", def.Timeout),
		SeedTimeout:       ag.MayDuration("SEED_TIMEOUT", def.SeedTimeout),
	}
}
