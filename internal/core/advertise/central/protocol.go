package central

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// ============================================================================
//                              线格式
// ============================================================================

// 帧格式：4 字节大端长度前缀 + JSON 载荷。
// 请求与响应使用同一帧格式。

const (
	// MaxFrameSize 单帧最大长度
	MaxFrameSize = 64 * 1024

	// MaxKeyLength 键的最大长度
	MaxKeyLength = 256

	// MaxValueLength 值的最大长度
	MaxValueLength = 1024
)

// 操作码
const (
	// OpPut 发布一条 (key, value) 通告
	OpPut = "PUT"

	// OpGet 查询某个键下的全部有效值
	OpGet = "GET"
)

// Request 请求
type Request struct {
	// Op 操作码（PUT 或 GET）
	Op string `json:"op"`

	// Key 查找键
	Key string `json:"key"`

	// Value 通告的值（仅 PUT）
	Value string `json:"value,omitempty"`

	// TTLSeconds 通告有效期，秒（仅 PUT）
	TTLSeconds int64 `json:"ttl,omitempty"`
}

// Response 响应
type Response struct {
	// OK 操作是否成功
	OK bool `json:"ok"`

	// Error 失败原因（OK 为 false 时）
	Error string `json:"error,omitempty"`

	// Values 键下的有效值（仅 GET）
	Values []string `json:"values,omitempty"`
}

// ValidateFact 验证 (key, value) 是否可通告
func ValidateFact(key, value string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("key length %d exceeds %d", len(key), MaxKeyLength)
	}
	if len(value) > MaxValueLength {
		return fmt.Errorf("value length %d exceeds %d", len(value), MaxValueLength)
	}
	return nil
}

// WriteFrame 写出一帧
func WriteFrame(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("frame size %d exceeds %d", len(payload), MaxFrameSize)
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// ReadFrame 读入一帧
func ReadFrame(r io.Reader, v any) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return err
	}

	size := binary.BigEndian.Uint32(header[:])
	if size > MaxFrameSize {
		return fmt.Errorf("frame size %d exceeds %d", size, MaxFrameSize)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	return nil
}
