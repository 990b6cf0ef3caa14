// Package codec provides encoders that drain a row stream into an
// io.Writer. Codecs are the consumer side of the cursor: they pull rows one
// at a time and close the stream when they finish, fail, or are canceled.
package codec

import (
	"context"
	"io"

	csvcodec "github.com/go-data-exporter/rowstream/codec/csv"
	htmlcodec "github.com/go-data-exporter/rowstream/codec/html"
	jsoncodec "github.com/go-data-exporter/rowstream/codec/json"
	"github.com/go-data-exporter/rowstream/stream"
)

type Codec interface {
	Write(ctx context.Context, rows *stream.Rows, writer io.Writer) error
}

func CSV(opts ...csvcodec.Option) Codec {
	return csvcodec.New(opts...)
}

func JSON(opts ...jsoncodec.Option) Codec {
	return jsoncodec.New(opts...)
}

func HTML(opts ...htmlcodec.Option) Codec {
	return htmlcodec.New(opts...)
}
