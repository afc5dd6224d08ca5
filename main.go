package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ByLCY/cardfit/card"
	"github.com/ByLCY/cardfit/layout"
	"github.com/ByLCY/cardfit/renderer"
	canvasrenderer "github.com/ByLCY/cardfit/renderer/canvas"
)

const defaultStyle = ".svgcard.css"

type options struct {
	templatePath string
	valuesPath   string
	outputPath   string
	stylePath    string
	resolution   float64
	debugPath    string
	verbose      bool
}

func main() {
	log.SetFlags(0)
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("参数错误: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("生成卡片失败: %v", err)
	}
	fmt.Printf("已生成：%s\n", opts.outputPath)
}

func parseFlags(args []string) (options, error) {
	var opts options
	fset := flag.NewFlagSet("cardfit", flag.ContinueOnError)
	fset.StringVar(&opts.stylePath, "style", defaultStyle, "样式文件路径")
	fset.StringVar(&opts.stylePath, "s", defaultStyle, "样式文件路径（-style 的简写）")
	fset.Float64Var(&opts.resolution, "presolution", layout.DefaultResolution, "字体渲染分辨率（DPI）")
	fset.Float64Var(&opts.resolution, "p", layout.DefaultResolution, "字体渲染分辨率（-presolution 的简写）")
	fset.StringVar(&opts.debugPath, "debug", "", "布局调试 JSON 输出路径")
	fset.BoolVar(&opts.verbose, "v", false, "输出逐元素的字号适配日志")
	fset.Usage = func() {
		fmt.Fprintf(fset.Output(), "用法: cardfit [选项] <模板> <取值> <输出>\n")
		fset.PrintDefaults()
	}
	if err := fset.Parse(args); err != nil {
		return options{}, err
	}
	if fset.NArg() != 3 {
		fset.Usage()
		return options{}, fmt.Errorf("需要 3 个位置参数，实际 %d 个", fset.NArg())
	}
	opts.templatePath = fset.Arg(0)
	opts.valuesPath = fset.Arg(1)
	opts.outputPath = fset.Arg(2)
	if opts.resolution <= 0 {
		return options{}, fmt.Errorf("分辨率必须为正数，实际 %g", opts.resolution)
	}
	return opts, nil
}

// run 串联加载、展开、布局与渲染，任何一步失败都不会写出文件。
func run(opts options) error {
	var logger *log.Logger
	if opts.verbose {
		logger = log.New(os.Stderr, "cardfit: ", 0)
	}

	tpl, err := card.LoadTemplate(opts.templatePath)
	if err != nil {
		return err
	}
	dict, err := card.LoadValues(opts.valuesPath)
	if err != nil {
		return err
	}
	checkStyle(opts.stylePath, logger)
	if logger != nil {
		for name := range tpl.SVGs {
			logger.Printf("svg 元素 %s 不会被嵌入", name)
		}
	}

	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		BaseDir:     filepath.Dir(opts.templatePath),
		Resolution:  opts.resolution,
		Imports:     tpl.Imports,
		SystemFonts: true,
		Meta: canvasrenderer.DocumentMeta{
			Title:   strings.TrimSuffix(filepath.Base(opts.outputPath), filepath.Ext(opts.outputPath)),
			Creator: "cardfit",
		},
		Logger: logger,
	})
	result, err := layout.Build(tpl, dict, layout.BuildOptions{Typesetter: r, Logger: logger})
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}

	if opts.debugPath != "" {
		if err := layout.WriteDebugJSON(result, opts.debugPath); err != nil {
			return fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
	}

	data, err := r.Render(result, renderer.FormatFromPath(opts.outputPath))
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}
	if dir := filepath.Dir(opts.outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	if err := os.WriteFile(opts.outputPath, data, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	return nil
}

// checkStyle 只检查样式文件是否存在；样式不参与排版。
func checkStyle(path string, logger *log.Logger) {
	if logger == nil || path == "" {
		return
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logger.Printf("样式文件 %s 不存在，忽略", path)
		return
	}
	logger.Printf("样式文件 %s 仅被记录，不参与排版", path)
}
