package nlp

import (
	"bufio"
	"embed"
	"strings"

	"github.com/pkg/errors"
)

//go:embed stopwords/*.txt
var stopwordFiles embed.FS

// StopWords returns the stop-word set for a language tag such as "en-US".
// Entries are lowercase.
func StopWords(language string) (map[string]struct{}, error) {
	lang := strings.ToLower(language)
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	name, ok := stopwordLists[lang]
	if !ok {
		return nil, errors.Errorf("no stop words for language %q", language)
	}
	f, err := stopwordFiles.Open("stopwords/" + name + ".txt")
	if err != nil {
		return nil, errors.Wrapf(err, "open stop words %q", name)
	}
	defer f.Close()

	words := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if w := strings.TrimSpace(sc.Text()); w != "" {
			words[strings.ToLower(w)] = struct{}{}
		}
	}
	return words, errors.Wrap(sc.Err(), "read stop words")
}

var stopwordLists = map[string]string{
	"en": "english",
}
