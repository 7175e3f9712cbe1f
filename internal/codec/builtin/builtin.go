// Package builtin registers the codecs shipped with hdfsutil.
package builtin

import (
	"github.com/discochess/hdfsutil/internal/codec"
	"github.com/discochess/hdfsutil/internal/codec/brotlicodec"
	"github.com/discochess/hdfsutil/internal/codec/deflatecodec"
	"github.com/discochess/hdfsutil/internal/codec/gzipcodec"
	"github.com/discochess/hdfsutil/internal/codec/lz4codec"
	"github.com/discochess/hdfsutil/internal/codec/noopcodec"
	"github.com/discochess/hdfsutil/internal/codec/snappycodec"
	"github.com/discochess/hdfsutil/internal/codec/zstdcodec"
)

// Codec identifiers.
const (
	Gzip    = "gzip"
	Deflate = "deflate"
	Zstd    = "zstd"
	Snappy  = "snappy"
	LZ4     = "lz4"
	Brotli  = "brotli"
	None    = "none"
)

// hadoopPrefix is the package of the Hadoop codec classes accepted as aliases.
const hadoopPrefix = "org.apache.hadoop.io.compress."

// NewRegistry returns a registry holding every built-in codec.
func NewRegistry() *codec.Registry {
	r := codec.NewRegistry()
	mustRegister(r, Gzip, func() codec.Codec { return gzipcodec.New() },
		"gz", hadoopPrefix+"GzipCodec")
	mustRegister(r, Deflate, func() codec.Codec { return deflatecodec.New() },
		"default", "zlib", hadoopPrefix+"DefaultCodec", hadoopPrefix+"DeflateCodec")
	mustRegister(r, Zstd, func() codec.Codec { return zstdcodec.New() },
		"zst", "zstandard", hadoopPrefix+"ZStandardCodec")
	mustRegister(r, Snappy, func() codec.Codec { return snappycodec.New() },
		hadoopPrefix+"SnappyCodec")
	mustRegister(r, LZ4, func() codec.Codec { return lz4codec.New() },
		hadoopPrefix+"Lz4Codec")
	mustRegister(r, Brotli, func() codec.Codec { return brotlicodec.New() },
		"br")
	mustRegister(r, None, func() codec.Codec { return noopcodec.New() },
		"identity")
	return r
}

func mustRegister(r *codec.Registry, name string, f codec.Factory, aliases ...string) {
	if err := r.Register(name, f, aliases...); err != nil {
		panic("builtin: " + err.Error())
	}
}
