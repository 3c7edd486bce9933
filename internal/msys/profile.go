// Package msys manages the bundled MSYS shell: it regenerates the login
// profile that dispatches to a variant's build script and starts the shell.
package msys

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vculaunch/internal/model"
	"vculaunch/internal/paths"
	"vculaunch/internal/report"
)

// ErrProfileDirMissing is returned when the profile's directory does not exist.
var ErrProfileDirMissing = errors.New("msys profile directory does not exist")

// profileHeader is the stock MSYS login environment setup.
const profileHeader = `# Copyright (C) 2001, 2002  Earnie Boyd  <earnie@users.sf.net>
# This file is part of the Minimal SYStem.
#   http://www.mingw.org/msys.shtml
#
#         File:	profile
#  Description:	Shell environment initialization script
# Last Revised:	2002.05.04

if [ -z "$MSYSTEM" ]; then
  MSYSTEM=MINGW32
fi

# PATH setup
if [ $MSYSTEM == MINGW32 ]; then
  export PATH=".:/usr/local/bin:/mingw/bin:/bin:$PATH"
else
  export PATH=".:/usr/local/bin:/bin:/mingw/bin:$PATH"
fi

if [ -z "$USERNAME" ]; then
  LOGNAME="$(id -un)"
else
  LOGNAME="$USERNAME"
fi

# Set up USER's home directory
if [ -z "$HOME" ]; then
  HOME="/home/$LOGNAME"
fi

if [ ! -d "$HOME" ]; then
  mkdir -p "$HOME"
fi

if [ "x$HISTFILE" == "x/.bash_history" ]; then
  HISTFILE=$HOME/.bash_history
fi

export HOME LOGNAME MSYSTEM HISTFILE

for i in /etc/profile.d/*.sh ; do
  if [ -f $i ]; then
    . $i
  fi
done

export MAKE_MODE=unix
export PS1='\[\033]0;$MSYSTEM:\w\007
\033[32m\]\u@\h \[\033[33m\w\033[0m\]
$ '

alias clear=clsb
`

// RenderProfile returns the complete profile text: the stock header plus a
// trailer that, when envVar holds a variant code, changes into that
// variant's build directory and runs its build script.
func RenderProfile(bp model.BuildPaths, envVar string) string {
	var b strings.Builder
	b.WriteString(profileHeader)

	fmt.Fprintf(&b, "\n# Variant dispatch on %s\n", envVar)
	fmt.Fprintf(&b, "if [ -n \"$%s\" ]; then\n", envVar)
	fmt.Fprintf(&b, "  user_input=\"$%s\"\n", envVar)
	fmt.Fprintf(&b, "  echo \"Current %s: $user_input\"\n\n", envVar)

	for i, v := range model.Variants {
		keyword := "elif"
		if i == 0 {
			keyword = "if"
		}
		fmt.Fprintf(&b, "  %s [ \"$user_input\" = \"%s\" ]; then\n", keyword, v.Code)
		fmt.Fprintf(&b, "    echo \"Switching to %s directory\"\n", v.Name)
		fmt.Fprintf(&b, "    cd \"%s\"\n", bp.For(v))
		fmt.Fprintf(&b, "    script_name=\"%s\"\n", v.BuildScript)
	}
	b.WriteString(`  else
    echo "Unknown mode: $user_input"
    exit 1
  fi

  echo "Current directory: $(pwd)"

  if [ -f "$script_name" ]; then
    echo "Executing script: $script_name"
    sh "$script_name"
  else
    echo "Script $script_name not found in current directory."
    echo "Available files:"
    ls -la *.sh 2>/dev/null || echo "No .sh files found."
  fi
fi
`)
	return b.String()
}

// ProfileGenerator rewrites the MSYS login profile.
type ProfileGenerator struct {
	layout paths.Layout
	envVar string
}

// NewProfileGenerator creates a generator keyed on envVar.
func NewProfileGenerator(layout paths.Layout, envVar string) *ProfileGenerator {
	return &ProfileGenerator{layout: layout, envVar: envVar}
}

// Regenerate overwrites the profile and returns the build paths embedded
// in it. Nothing is written when the profile's directory is missing.
func (g *ProfileGenerator) Regenerate(log *report.Logger) (model.BuildPaths, error) {
	target := g.layout.ProfilePath()
	if !model.IsDir(filepath.Dir(target)) {
		log.Warnf("MSYS profile directory does not exist: %s", filepath.Dir(target))
		return model.BuildPaths{}, fmt.Errorf("%w: %s", ErrProfileDirMissing, filepath.Dir(target))
	}

	bp := g.layout.BuildPaths()
	if err := os.WriteFile(target, []byte(RenderProfile(bp, g.envVar)), 0o644); err != nil {
		log.Errorf("Failed to update MSYS profile: %v", err)
		return model.BuildPaths{}, fmt.Errorf("write profile: %w", err)
	}

	log.Infof("MSYS profile updated: %s", target)
	log.Debugf("MVCU build path: %s", bp.MVCU)
	log.Debugf("SVCU build path: %s", bp.SVCU)
	return bp, nil
}
