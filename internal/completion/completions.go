// Package completion prints shell completion scripts for hlsgrab.
package completion

import (
	"fmt"
	"io"
	"strings"
)

// Shells lists the supported shells.
var Shells = []string{"bash", "zsh", "fish"}

// Write prints the completion script for shell to w.
func Write(w io.Writer, shell string) error {
	var script string
	switch strings.ToLower(strings.TrimSpace(shell)) {
	case "bash":
		script = BashCompletion
	case "zsh":
		script = ZshCompletion
	case "fish":
		script = FishCompletion
	default:
		return fmt.Errorf("unsupported shell: %s (supported: %s)", shell, strings.Join(Shells, ", "))
	}
	_, err := io.WriteString(w, script)
	return err
}

// BashCompletion is the bash completion script.
const BashCompletion = `# hlsgrab bash completion script
# Installation: hlsgrab --completion bash > /etc/bash_completion.d/hlsgrab

_hlsgrab_completion() {
    local cur prev words cword
    _init_completion || return

    local flags="--config -o --container --keep-temp --reuse-segments -a --attempts --timeout --ffmpeg --status --completion --help"

    case "$prev" in
        --config)
            COMPREPLY=($(compgen -f -X '!*.json' -- "$cur"))
            return
            ;;
        -o)
            COMPREPLY=($(compgen -d -- "$cur"))
            return
            ;;
        --container)
            COMPREPLY=($(compgen -W "mp4 mkv ts" -- "$cur"))
            return
            ;;
        -a|--attempts)
            COMPREPLY=($(compgen -W "1 2 3 4 5 6 7 8 9 10" -- "$cur"))
            return
            ;;
        --ffmpeg)
            COMPREPLY=($(compgen -c -- "$cur"))
            return
            ;;
        --completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            return
            ;;
    esac

    if [[ "$cur" == -* ]]; then
        COMPREPLY=($(compgen -W "$flags" -- "$cur"))
        return
    fi
    COMPREPLY=($(compgen -f -X '!*.json' -- "$cur"))
}

complete -F _hlsgrab_completion hlsgrab
`

// ZshCompletion is the zsh completion script.
const ZshCompletion = `#compdef hlsgrab
# Installation: hlsgrab --completion zsh > ~/.zsh/completion/_hlsgrab

_hlsgrab() {
    _arguments \
        '--config[explicit config.json path]:config file:_files -g "*.json"' \
        '-o[output root]:directory:_directories' \
        '--container[output container]:container:(mp4 mkv ts)' \
        '(-a --attempts)'{-a,--attempts}'[fetch attempts per segment]:attempts:(1 2 3 4 5 6 7 8 9 10)' \
        '--timeout[per-request timeout in seconds]:seconds:' \
        '--ffmpeg[ffmpeg binary name or path]:ffmpeg:_command_names -e' \
        '--keep-temp[keep downloaded segments after a successful merge]' \
        '--reuse-segments[re-merge complete on-disk segment sets]' \
        '--status[print resume state and exit]' \
        '--completion[print a shell completion script]:shell:(bash zsh fish)' \
        '--help[show help]' \
        '1:catalog file:_files -g "*.json"'
}

_hlsgrab "$@"
`

// FishCompletion is the fish completion script.
const FishCompletion = `# hlsgrab fish completion script
# Installation: hlsgrab --completion fish > ~/.config/fish/completions/hlsgrab.fish

complete -c hlsgrab -l config -r -F -d 'Explicit config.json path'
complete -c hlsgrab -s o -r -a '(__fish_complete_directories)' -d 'Output root'
complete -c hlsgrab -l container -x -a 'mp4 mkv ts' -d 'Output container'
complete -c hlsgrab -s a -l attempts -x -a '1 2 3 4 5 6 7 8 9 10' -d 'Fetch attempts per segment'
complete -c hlsgrab -l timeout -x -d 'Per-request timeout in seconds'
complete -c hlsgrab -l ffmpeg -r -d 'ffmpeg binary name or path'
complete -c hlsgrab -l keep-temp -d 'Keep downloaded segments after a successful merge'
complete -c hlsgrab -l reuse-segments -d 'Re-merge complete on-disk segment sets'
complete -c hlsgrab -l status -d 'Print resume state and exit'
complete -c hlsgrab -l completion -x -a 'bash zsh fish' -d 'Print a shell completion script'
complete -c hlsgrab -F
`
