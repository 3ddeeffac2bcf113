package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/jmagar/hlsgrab/internal/model"
	"github.com/jmagar/hlsgrab/internal/ui"
)

// EnvPrefix is the prefix of every environment override, e.g. HLSGRAB_OUT_PATH.
const EnvPrefix = "HLSGRAB"

// LoadedConfigPath tracks which config file was loaded, empty when none was found.
var LoadedConfigPath string

var validate = validator.New()

// Defaults returns the built-in configuration.
func Defaults() model.Config {
	return model.Config{
		OutPath:         model.DefaultOutPath,
		Container:       model.DefaultContainer,
		SegmentExt:      model.DefaultSegmentExt,
		MaxAttempts:     model.DefaultMaxAttempts,
		FetchTimeout:    model.DefaultFetchTimeout,
		UseFfmpegEnvVar: false,
		RcloneTransfers: 4,
	}
}

// SearchPaths lists where config.json is looked for, in order.
func SearchPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return []string{
		"config.json",
		filepath.Join(homeDir, ".hlsgrab", "config.json"),
		filepath.Join(homeDir, ".config", "hlsgrab", "config.json"),
	}, nil
}

// ParseArgs parses CLI arguments using go-arg.
func ParseArgs() *model.Args {
	var args model.Args
	arg.MustParse(&args)
	return &args
}

// Load merges defaults, config.json, .env, HLSGRAB_* variables and args, in that
// order, and validates the result. args may be nil.
func Load(args *model.Args) (*model.Config, error) {
	cfg := Defaults()

	explicit := ""
	if args != nil {
		explicit = args.ConfigPath
	}
	if err := ReadConfig(&cfg, explicit); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	applyArgs(&cfg, args)
	normalize(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ReadConfig overlays the first config file found onto cfg. An explicit path must
// exist; without one a missing file leaves cfg unchanged.
func ReadConfig(cfg *model.Config, explicit string) error {
	LoadedConfigPath = ""

	var paths []string
	if explicit != "" {
		paths = []string{explicit}
	} else {
		var err error
		paths, err = SearchPaths()
		if err != nil {
			return err
		}
	}

	var (
		data       []byte
		configPath string
	)
	for _, path := range paths {
		b, err := os.ReadFile(path)
		if err == nil {
			data, configPath = b, path
			break
		}
		if explicit != "" {
			return fmt.Errorf("failed to read config %s: %w", explicit, err)
		}
	}
	if data == nil {
		return nil
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config at %s: %w", configPath, err)
	}
	LoadedConfigPath = configPath
	warnInsecurePermissions(configPath)
	return nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *model.Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s (%s=%v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyArgs(cfg *model.Config, args *model.Args) {
	if args == nil {
		return
	}
	if args.OutPath != "" {
		cfg.OutPath = args.OutPath
	}
	if args.Container != "" {
		cfg.Container = args.Container
	}
	if args.MaxAttempts != -1 {
		cfg.MaxAttempts = args.MaxAttempts
	}
	if args.Timeout != -1 {
		cfg.FetchTimeout = args.Timeout
	}
	if args.FfmpegNameStr != "" {
		cfg.FfmpegNameStr = args.FfmpegNameStr
	}
	if args.KeepTemp {
		cfg.KeepTemp = true
	}
	if args.ReuseSegments {
		cfg.ReuseSegments = true
	}
}

func normalize(cfg *model.Config) {
	cfg.OutPath = strings.TrimSpace(cfg.OutPath)
	if cfg.OutPath == "" {
		cfg.OutPath = model.DefaultOutPath
	}
	cfg.Container = strings.ToLower(strings.TrimSpace(cfg.Container))
	cfg.SegmentExt = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(cfg.SegmentExt)), ".")
	cfg.RclonePath = strings.TrimSpace(cfg.RclonePath)
}

func warnInsecurePermissions(configPath string) {
	fileInfo, err := os.Stat(configPath)
	if err != nil {
		return
	}
	mode := fileInfo.Mode()
	if mode.Perm()&0077 == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "%s WARNING: Config file has insecure permissions (%04o)\n", ui.ColorYellow+ui.SymbolWarning+ui.ColorReset, mode.Perm())
	fmt.Fprintf(os.Stderr, "   File: %s\n", configPath)
	fmt.Fprintf(os.Stderr, "   Risk: Config may contain a Gotify token and should only be readable by you\n")
	if runtime.GOOS == "windows" {
		fmt.Fprintf(os.Stderr, "   Windows ACLs in use; skipping chmod auto-fix\n\n")
		return
	}
	if chmodErr := os.Chmod(configPath, 0600); chmodErr != nil {
		fmt.Fprintf(os.Stderr, "   Auto-fix failed: %v\n", chmodErr)
		fmt.Fprintf(os.Stderr, "   Fix manually: chmod 600 %s\n\n", configPath)
	} else {
		fmt.Fprintf(os.Stderr, "   Auto-fix applied: chmod 600 %s\n\n", configPath)
	}
}

// ResolveFfmpegBinary locates the ffmpeg binary based on config settings.
func ResolveFfmpegBinary(cfg *model.Config) (string, error) {
	preferred := strings.TrimSpace(cfg.FfmpegNameStr)

	// Explicit non-default names or paths must resolve.
	if preferred != "" && preferred != "./ffmpeg" && preferred != "ffmpeg" {
		if resolved, err := exec.LookPath(preferred); err == nil {
			return resolved, nil
		}
		if info, err := os.Stat(preferred); err == nil && !info.IsDir() {
			return preferred, nil
		}
		return "", fmt.Errorf("configured ffmpeg binary not found: %s", preferred)
	}

	if cfg.UseFfmpegEnvVar || preferred == "ffmpeg" {
		if resolved, err := exec.LookPath("ffmpeg"); err == nil {
			return resolved, nil
		}
		return "", errors.New("ffmpeg not found in PATH (install ffmpeg or set ffmpegNameStr to an absolute/local binary path)")
	}

	candidates := []string{"./ffmpeg"}
	if exePath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exePath), "ffmpeg"))
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	if resolved, err := exec.LookPath("ffmpeg"); err == nil {
		return resolved, nil
	}
	return "", errors.New("ffmpeg binary not found (checked ./ffmpeg and PATH)")
}
