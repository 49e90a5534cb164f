package config

import (
	_ "embed"
	"os"
)

// DefaultConfigFile init命令生成的配置文件路径
const DefaultConfigFile = "configs/config.yaml"

//go:embed config_template.yaml
var defaultConfigTemplate string

// WriteConfigTemplate 写入配置模板,文件已存在时不覆盖
// 返回是否实际写入
func WriteConfigTemplate(path string) (bool, error) {
	if path == "" {
		path = DefaultConfigFile
	}
	_, statErr := os.Stat(path)
	existed := statErr == nil
	if err := writeTemplateIfMissing(path, defaultConfigTemplate); err != nil {
		return false, err
	}
	return !existed, nil
}
