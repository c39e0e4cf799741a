// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const maildirInfo = ":2,"

type flagTag struct {
	flag byte
	tag  string
	// inverse flags mark the absence of the tag
	inverse bool
}

var flagTags = []flagTag{
	{'D', "draft", false},
	{'F', "flagged", false},
	{'P', "passed", false},
	{'R', "replied", false},
	{'S', "unread", true},
}

// MaildirFlags returns the flags of a maildir file name and whether the name
// carries a maildir info part at all.
func MaildirFlags(filename string) (string, bool) {
	base := filepath.Base(filename)
	i := strings.LastIndex(base, maildirInfo)
	if i < 0 {
		return "", false
	}
	return base[i+len(maildirInfo):], true
}

// HasMaildirFlag reports whether flag is set on any of the files.
func HasMaildirFlag(filenames []string, flag byte) bool {
	for _, f := range filenames {
		flags, _ := MaildirFlags(f)
		if strings.IndexByte(flags, flag) >= 0 {
			return true
		}
	}
	return false
}

// InMaildir reports whether filename lives in the cur/ or new/ folder of a
// maildir.
func InMaildir(filename string) bool {
	dir := filepath.Base(filepath.Dir(filename))
	return dir == "cur" || dir == "new"
}

// FlagTags lists the tags synchronised with maildir flags.
func FlagTags() []string {
	tags := make([]string, len(flagTags))
	for i, ft := range flagTags {
		tags[i] = ft.tag
	}
	return tags
}

// TagsFromFlags returns which of FlagTags should be set for the union of
// flags over all of a message's files. Files outside cur/ and new/ are
// ignored; ok is false if no file is in a maildir.
func TagsFromFlags(filenames []string) (add []string, remove []string, ok bool) {
	union := ""
	for _, f := range filenames {
		if !InMaildir(f) {
			continue
		}
		ok = true
		flags, _ := MaildirFlags(f)
		union += flags
	}
	if !ok {
		return nil, nil, false
	}

	for _, ft := range flagTags {
		has := strings.IndexByte(union, ft.flag) >= 0
		if has != ft.inverse {
			add = append(add, ft.tag)
		} else {
			remove = append(remove, ft.tag)
		}
	}
	return add, remove, true
}

// FlagsFromTags computes the synchronised flags for tags, merged with the
// unsynchronised flags already in current. The result is sorted.
func FlagsFromTags(tags []string, current string) string {
	set := map[byte]bool{}
	for i := 0; i < len(current); i++ {
		set[current[i]] = true
	}

	has := map[string]bool{}
	for _, t := range tags {
		has[t] = true
	}
	for _, ft := range flagTags {
		set[ft.flag] = has[ft.tag] != ft.inverse
	}

	flags := []byte{}
	for f, on := range set {
		if on {
			flags = append(flags, f)
		}
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })
	return string(flags)
}

// WithFlags returns the name filename should have with the given flags. Files
// in new/ move to cur/ once they carry an info part.
func WithFlags(filename string, flags string) string {
	dir, base := filepath.Split(filename)
	if i := strings.LastIndex(base, maildirInfo); i >= 0 {
		base = base[:i]
	}
	if filepath.Base(filepath.Clean(dir)) == "new" {
		dir = filepath.Join(filepath.Dir(filepath.Clean(dir)), "cur")
	}
	return filepath.Join(dir, base+maildirInfo+flags)
}

var imapFlags = map[string]byte{
	`\Draft`:    'D',
	`\Flagged`:  'F',
	`\Answered`: 'R',
	`\Seen`:     'S',
	`\Deleted`:  'T',
}

// FlagsFromImap maps imap system flags to sorted maildir flags. Other flags
// are dropped.
func FlagsFromImap(flags []string) string {
	set := []byte{}
	for _, f := range flags {
		if b, ok := imapFlags[f]; ok && strings.IndexByte(string(set), b) < 0 {
			set = append(set, b)
		}
	}
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })
	return string(set)
}

var hostEscaper = strings.NewReplacer("/", `\057`, ":", `\072`)

// DeliveryName returns a maildir file name for a mail received at date.
// unique must tell apart mails delivered in the same second.
func DeliveryName(date time.Time, unique, host string) string {
	return fmt.Sprintf("%d.%s.%s", date.Unix(), unique, hostEscaper.Replace(host))
}
