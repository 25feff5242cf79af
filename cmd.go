package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/any-hub/artcache/internal/cache"
	"github.com/any-hub/artcache/internal/config"
	"github.com/any-hub/artcache/internal/logging"
	"github.com/any-hub/artcache/internal/profile"
	"github.com/any-hub/artcache/internal/server"
	"github.com/any-hub/artcache/internal/server/routes"
)

// configEnv 可覆盖默认配置路径，--config 优先级更高。
const configEnv = "ARTCACHE_CONFIG"

// cliState 在子命令之间共享全局标志。
type cliState struct {
	configFlag string
}

// requestFlags 是 get/set/clear/locate 共用的请求参数。
type requestFlags struct {
	content     string
	contentFile string
	ext         string
	profile     string
}

func newRootCmd() *cobra.Command {
	state := &cliState{}

	root := &cobra.Command{
		Use:           "artcache",
		Short:         "Content-addressed cache for compiled build artifacts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&state.configFlag, "config", "", "配置文件路径（默认 ./artcache.toml，可被 ARTCACHE_CONFIG 覆盖）")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	root.AddCommand(
		newGetCmd(state),
		newSetCmd(state),
		newClearCmd(state),
		newLocateCmd(state),
		newHashCmd(),
		newFolderCmd(),
		newStatsCmd(state),
		newServeCmd(state),
		newCheckConfigCmd(state),
		newVersionCmd(),
	)
	return root
}

// resolveConfigPath 结合 flag 与环境变量计算最终的配置路径。
func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(configEnv); env != "" {
		return env
	}
	return config.DefaultPath
}

// bootstrap 加载配置并初始化日志；CLI 子命令的日志输出到 stderr。
func (s *cliState) bootstrap(console io.Writer) (*config.Config, *logrus.Logger, string, error) {
	path := resolveConfigPath(s.configFlag)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, path, fmt.Errorf("加载配置失败: %w", err)
	}
	logger, err := logging.InitLoggerTo(cfg.Global, console)
	if err != nil {
		return nil, nil, path, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, logger, path, nil
}

func (s *cliState) openCache(console io.Writer) (*cache.Cache, *config.Config, *logrus.Logger, error) {
	cfg, logger, _, err := s.bootstrap(console)
	if err != nil {
		return nil, nil, nil, err
	}
	c, err := cache.New(cfg.Global.CacheDir,
		cache.WithLocator(cfg.Locator()),
		cache.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("初始化缓存失败: %w", err)
	}
	return c, cfg, logger, nil
}

func (f *requestFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.content, "content", "", "以给定字符串作为源内容（虚拟源）")
	cmd.Flags().StringVar(&f.contentFile, "content-file", "", "从另一个文件读取源内容（虚拟源）")
	cmd.Flags().StringVar(&f.ext, "ext", "", "缓存文件扩展名，优先于 --profile")
	cmd.Flags().StringVar(&f.profile, "profile", "", "产物 profile，决定扩展名（默认取配置中的 DefaultProfile）")
}

// build 将命令行参数转换为 cache.Request：提供 --content/--content-file 即虚拟源，
// 否则从磁盘读取 filePath。
func (f *requestFlags) build(cmd *cobra.Command, cfg *config.Config, filePath string) (cache.Request, error) {
	var ext string
	if cmd.Flags().Changed("ext") {
		ext = profile.NormalizeExtension(f.ext)
	} else {
		p, err := cfg.ResolveProfile(f.profile)
		if err != nil {
			return cache.Request{}, usageError{err: err}
		}
		ext = p.Extension
	}

	contentSet := cmd.Flags().Changed("content")
	if contentSet && f.contentFile != "" {
		return cache.Request{}, usageError{err: fmt.Errorf("--content 与 --content-file 不能同时使用")}
	}
	switch {
	case contentSet:
		return cache.Virtual(filePath, f.content, ext), nil
	case f.contentFile != "":
		data, err := os.ReadFile(f.contentFile)
		if err != nil {
			return cache.Request{}, fmt.Errorf("读取 --content-file 失败: %w", err)
		}
		return cache.Virtual(filePath, string(data), ext), nil
	default:
		return cache.Real(filePath, ext), nil
	}
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageError{err: fmt.Errorf("%s 需要 %d 个参数，得到 %d", cmd.Name(), n, len(args))}
		}
		return nil
	}
}

func logRequest(logger *logrus.Logger, op string, req cache.Request, hit bool) {
	_, virtual := req.Source.(cache.VirtualSource)
	logger.WithFields(logging.CacheFields(op, req.Source.SourcePath(), req.Extension, virtual, hit)).Debug("cli cache request")
}

func newGetCmd(state *cliState) *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "get <file>",
		Short: "Print the cached artifact for a source file (exit 3 on miss)",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cfg, logger, err := state.openCache(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			req, err := flags.build(cmd, cfg, args[0])
			if err != nil {
				return err
			}
			artifact, ok, err := c.Get(cmd.Context(), req)
			if err != nil {
				return err
			}
			logRequest(logger, "get", req, ok)
			if !ok {
				return errCacheMiss
			}
			_, err = io.WriteString(cmd.OutOrStdout(), artifact)
			return err
		},
	}
	flags.bind(cmd)
	return cmd
}

func newSetCmd(state *cliState) *cobra.Command {
	flags := &requestFlags{}
	var artifact, artifactFile string
	cmd := &cobra.Command{
		Use:   "set <file>",
		Short: "Store an artifact (from --artifact, --artifact-file or stdin)",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cfg, logger, err := state.openCache(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			req, err := flags.build(cmd, cfg, args[0])
			if err != nil {
				return err
			}

			body := artifact
			switch {
			case cmd.Flags().Changed("artifact"):
			case artifactFile != "":
				data, err := os.ReadFile(artifactFile)
				if err != nil {
					return fmt.Errorf("读取 --artifact-file 失败: %w", err)
				}
				body = string(data)
			default:
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("读取 stdin 失败: %w", err)
				}
				body = string(data)
			}

			if err := c.Set(cmd.Context(), req, body); err != nil {
				return err
			}
			logRequest(logger, "set", req, false)
			return nil
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&artifact, "artifact", "", "产物内容")
	cmd.Flags().StringVar(&artifactFile, "artifact-file", "", "从文件读取产物内容")
	return cmd
}

func newClearCmd(state *cliState) *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "clear <file>",
		Short: "Remove every cached revision of a source file",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cfg, logger, err := state.openCache(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			req, err := flags.build(cmd, cfg, args[0])
			if err != nil {
				return err
			}
			if err := c.Clear(cmd.Context(), req); err != nil {
				return err
			}
			logRequest(logger, "clear", req, false)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func newLocateCmd(state *cliState) *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "locate <file>",
		Short: "Print the absolute path of the artifact slot",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cfg, _, err := state.openCache(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			req, err := flags.build(cmd, cfg, args[0])
			if err != nil {
				return err
			}
			path, err := c.Locate(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [content]",
		Short: "Print the 10-character content hash (reads stdin without an argument)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := ""
			if len(args) == 1 {
				content = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("读取 stdin 失败: %w", err)
				}
				content = string(data)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cache.Hash(content))
			return nil
		},
	}
}

func newFolderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "folder <file>",
		Short: "Print the cache folder name derived from a source path",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), cache.FolderName(args[0]))
			return nil
		},
	}
}

func newStatsCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache directory statistics",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, _, err := state.openCache(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			stats, err := c.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("读取缓存统计失败: %w", err)
			}
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

// serveFlags 是 serve 子命令特有的覆盖参数。
type serveFlags struct {
	port int
}

func (f *serveFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.port, "port", 0, "覆盖配置中的 ListenPort")
}

// apply 仅在显式传入 flag 时覆盖配置。
func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Global.ListenPort = f.port
	}
}

func newServeCmd(state *cliState) *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the cache over HTTP for build tools",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, path, err := state.bootstrap(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)

			app, root, err := buildServeApp(context.Background(), cfg, logger)
			if err != nil {
				return err
			}

			fields := logging.BaseFields("listen", path)
			fields["port"] = cfg.Global.ListenPort
			fields["project_root"] = root
			fields["cache_dir"] = cfg.Global.CacheDir
			fields["version"] = fullVersion()
			logger.WithFields(fields).Info("Fiber 服务启动")

			return app.Listen(fmt.Sprintf(":%d", cfg.Global.ListenPort))
		},
	}
	flags.bind(cmd)
	return cmd
}

// buildServeApp 组装 HTTP 服务：缓存只读取项目内的真实源文件，
// 并在返回前解析一次项目根目录，配置错误在监听端口前暴露。
func buildServeApp(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*fiber.App, string, error) {
	c, err := cache.New(cfg.Global.CacheDir,
		cache.WithLocator(cfg.Locator()),
		cache.WithLogger(logger),
		cache.WithConfinedSources(),
	)
	if err != nil {
		return nil, "", fmt.Errorf("初始化缓存失败: %w", err)
	}
	root, err := c.ProjectRoot(ctx)
	if err != nil {
		return nil, "", err
	}

	app, err := server.NewApp(server.AppOptions{
		Logger:         logger,
		Cache:          c,
		Profiles:       cfg,
		ListenPort:     cfg.Global.ListenPort,
		RequestTimeout: cfg.Global.RequestTimeout.DurationValue(),
		BodyLimit:      int(cfg.Global.MaxArtifactSize),
	})
	if err != nil {
		return nil, "", err
	}
	routes.RegisterDiagnosticsRoutes(app, cfg, c)
	return app, root, nil
}

func newCheckConfigCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration and exit",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, path, err := state.bootstrap(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			fields := logging.BaseFields("check_config", path)
			fields["cache_dir"] = cfg.Global.CacheDir
			fields["profiles"] = profileKeys(cfg)
			fields["result"] = "ok"
			logger.WithFields(fields).Info("配置校验通过")
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  exactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			printVersion()
		},
	}
}

func profileKeys(cfg *config.Config) string {
	list := cfg.ProfileList()
	keys := make([]string, len(list))
	for i, p := range list {
		keys[i] = p.Key + "=" + p.Extension
	}
	return strings.Join(keys, ",")
}
