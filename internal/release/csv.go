package release

import (
	"strings"

	"relvault/internal/model"
)

// csvColumns is the fixed column order of a project's version export.
var csvColumns = []string{"Version", "Build Time", "MD5", "Changelog", "Binary File", "Config File"}

// VersionsCSV renders one row per version of the project. Every field
// is quoted; embedded quotes are doubled and embedded newlines survive
// inside the quotes, per standard CSV quoting rules.
func VersionsCSV(p *model.Project) string {
	var b strings.Builder
	writeCSVRow(&b, csvColumns)
	for _, v := range p.Versions {
		var md5, binName, cfgName string
		if v.BinaryFile != nil {
			md5 = v.BinaryFile.MD5
			binName = v.BinaryFile.FileName
		}
		if v.ConfigFile != nil {
			cfgName = v.ConfigFile.FileName
		}
		writeCSVRow(&b, []string{v.Version, v.BuildTime.String(), md5, v.Changelog, binName, cfgName})
	}
	return b.String()
}

func writeCSVRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}
