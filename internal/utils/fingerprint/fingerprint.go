// Package fingerprint 计算记录内容指纹，作为是否需要写库的唯一依据。
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Fields 记录的字段集合：字段名 → 值（值需可 JSON 序列化）
type Fields map[string]any

// Of 计算字段集合的 SHA256 指纹（hex，64 字符）。
// 字段名先排序再逐对序列化为 "key":value，字段顺序不影响结果；nil 指针序列化为 null。
func Of(fields Fields) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(fields[k])
		if err != nil {
			// 不可序列化的值退化为错误文本
			vb, _ = json.Marshal(err.Error())
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

// Equal 两份指纹是否一致（空指纹视为从未计算过，恒不相等）
func Equal(a, b string) bool {
	return a != "" && a == b
}
