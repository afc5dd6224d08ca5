package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/ByLCY/cardfit/layout"
)

const testTemplate = `
[dimension]
width = 200
height = 120

[fontset]
body = "Nowhere Sans"

[texts.greet]
text = ["Hello {name}"]
fontset = "body"
fontsize = 10
pos = [20, 20]
space = [0, 2]
`

const testValues = `
name = ["Ann", "Bo"]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入 %s 失败: %v", name, err)
	}
	return path
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-p", "144", "-s", "card.css", "t.toml", "v.toml", "out.pdf"})
	if err != nil {
		t.Fatalf("解析参数失败: %v", err)
	}
	if opts.resolution != 144 || opts.stylePath != "card.css" || opts.outputPath != "out.pdf" {
		t.Fatalf("参数解析错误: %#v", opts)
	}

	opts, err = parseFlags([]string{"t.toml", "v.toml", "out.pdf"})
	if err != nil {
		t.Fatalf("解析参数失败: %v", err)
	}
	if opts.resolution != layout.DefaultResolution || opts.stylePath != defaultStyle {
		t.Fatalf("默认值错误: %#v", opts)
	}

	if _, err := parseFlags([]string{"t.toml", "v.toml"}); err == nil {
		t.Fatalf("缺少输出路径应报错")
	}
	if _, err := parseFlags([]string{"-p", "0", "t.toml", "v.toml", "o.pdf"}); err == nil {
		t.Fatalf("非正分辨率应报错")
	}
	if _, err := parseFlags([]string{"-h"}); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("-h 应返回 ErrHelp，实际 %v", err)
	}
}

func TestRunWritesPDFAndDebug(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		templatePath: writeFile(t, dir, "card.toml", testTemplate),
		valuesPath:   writeFile(t, dir, "values.toml", testValues),
		outputPath:   filepath.Join(dir, "out", "card.pdf"),
		debugPath:    filepath.Join(dir, "out", "layout.json"),
		resolution:   96,
	}
	if err := run(opts); err != nil {
		t.Fatalf("生成失败: %v", err)
	}
	data, err := os.ReadFile(opts.outputPath)
	if err != nil {
		t.Fatalf("读取输出失败: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("输出不是 PDF")
	}

	raw, err := os.ReadFile(opts.debugPath)
	if err != nil {
		t.Fatalf("读取调试 JSON 失败: %v", err)
	}
	var res layout.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		t.Fatalf("调试 JSON 无法解析: %v", err)
	}
	if len(res.Elements) != 1 || res.Elements[0].Font.Size != 5 || len(res.Elements[0].Lines) != 2 {
		t.Fatalf("调试 JSON 内容错误: %#v", res.Elements)
	}
	first, second := res.Elements[0].Lines[0], res.Elements[0].Lines[1]
	if diff := second.Y - (first.Y + first.Height + 2); diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("第二行 y 错误: first=%#v second=%#v", first, second)
	}
}

func TestRunMissingFontWritesNothing(t *testing.T) {
	dir := t.TempDir()
	tpl := `
[dimension]
width = 100
height = 100

[fontset]
body = "Sans"

[texts.x]
text = "x"
fontset = "ghost"
fontsize = 10
pos = [0, 0]
`
	opts := options{
		templatePath: writeFile(t, dir, "card.toml", tpl),
		valuesPath:   writeFile(t, dir, "values.toml", ""),
		outputPath:   filepath.Join(dir, "card.pdf"),
		resolution:   96,
	}
	err := run(opts)
	if !errors.Is(err, layout.ErrFontNotFound) {
		t.Fatalf("期望 ErrFontNotFound，实际 %v", err)
	}
	if _, statErr := os.Stat(opts.outputPath); !os.IsNotExist(statErr) {
		t.Fatalf("失败时不应写出文件")
	}
}

func TestRunLoadErrors(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		templatePath: filepath.Join(dir, "missing.toml"),
		valuesPath:   writeFile(t, dir, "values.toml", ""),
		outputPath:   filepath.Join(dir, "card.pdf"),
		resolution:   96,
	}
	if err := run(opts); err == nil {
		t.Fatalf("模板不存在应报错")
	}
	opts.templatePath = writeFile(t, dir, "card.toml", testTemplate)
	opts.valuesPath = writeFile(t, dir, "bad.toml", "name = 3\n")
	if err := run(opts); err == nil {
		t.Fatalf("取值格式错误应报错")
	}
}
