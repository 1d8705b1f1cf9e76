package config

import "fmt"

// splitKeyArg splits a YAML mapping key of the form `name<arg>` into its
// name and arg parts, mirroring the original implementation's parse_arg:
// a key with no `<` is returned unchanged with an empty arg; a key with `<`
// must be terminated by a trailing `>`.
func splitKeyArg(key string) (name, arg string, err error) {
	open := -1
	for i := 0; i < len(key); i++ {
		if key[i] == '<' {
			open = i
			break
		}
	}
	if open < 0 {
		return key, "", nil
	}
	if key[len(key)-1] != '>' {
		return "", "", fmt.Errorf("config: argument for %q is not properly terminated with '>'", key[:open])
	}
	return key[:open], key[open+1 : len(key)-1], nil
}
