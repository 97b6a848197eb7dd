/*
Copyright 2026 The Driftcore Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Config", func() {
	var (
		tempDir    string
		configFile string
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "config-test")
		Expect(err).NotTo(HaveOccurred())
		configFile = filepath.Join(tempDir, "config.yaml")
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	Describe("Load", func() {
		Context("when config file exists with valid content", func() {
			BeforeEach(func() {
				validConfig := `
server:
  webhook_port: "8080"
  metrics_port: "9090"

database:
  dsn: "postgres://localhost/driftcore"

llm:
  provider: "anthropic"
  model: "claude-opus-4"
  timeout: "45s"
  retry_count: 2
  temperature: 0.1
  max_tokens: 4000

notification:
  max_per_hour_per_tenant: 20

logging:
  level: "debug"
  format: "console"
`
				Expect(os.WriteFile(configFile, []byte(validConfig), 0644)).To(Succeed())
			})

			It("should load configuration successfully", func() {
				cfg, err := Load(configFile)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())

				Expect(cfg.Server.WebhookPort).To(Equal("8080"))
				Expect(cfg.Database.DSN).To(Equal("postgres://localhost/driftcore"))
				Expect(cfg.LLM.Model).To(Equal("claude-opus-4"))
				Expect(cfg.LLM.Timeout).To(Equal(45 * time.Second))
				Expect(cfg.LLM.Temperature).To(Equal(float32(0.1)))
				Expect(cfg.Notification.MaxPerHourPerTenant).To(Equal(20))
				Expect(cfg.Logging.Level).To(Equal("debug"))
			})
		})

		Context("when config file has minimal content", func() {
			BeforeEach(func() {
				minimalConfig := `
database:
  dsn: "postgres://localhost/driftcore"
`
				Expect(os.WriteFile(configFile, []byte(minimalConfig), 0644)).To(Succeed())
			})

			It("should apply defaults for missing values", func() {
				cfg, err := Load(configFile)
				Expect(err).NotTo(HaveOccurred())

				Expect(cfg.Server.WebhookPort).To(Equal("8080"))
				Expect(cfg.LLM.Provider).To(Equal("anthropic"))
				Expect(cfg.Workspace.HighConfidenceThreshold).To(Equal(0.70))
				Expect(cfg.Workspace.MediumConfidenceThreshold).To(Equal(0.55))
			})
		})

		Context("when config file does not exist", func() {
			It("should return an error", func() {
				_, err := Load("/nonexistent/config.yaml")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to read config file"))
			})
		})

		Context("when config has invalid duration formats", func() {
			BeforeEach(func() {
				invalidConfig := `
database:
  dsn: "postgres://localhost/driftcore"
llm:
  timeout: "not-a-duration"
`
				Expect(os.WriteFile(configFile, []byte(invalidConfig), 0644)).To(Succeed())
			})

			It("should return an error", func() {
				_, err := Load(configFile)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to parse config file"))
			})
		})
	})

	Describe("validate", func() {
		var cfg *Config

		BeforeEach(func() {
			cfg = defaultConfig()
			cfg.Database.DSN = "postgres://localhost/driftcore"
		})

		It("passes for a valid config", func() {
			Expect(validate(cfg)).To(Succeed())
		})

		It("rejects an unsupported LLM provider", func() {
			cfg.LLM.Provider = "openai"
			err := validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported LLM provider"))
		})

		It("rejects a missing database DSN", func() {
			cfg.Database.DSN = ""
			err := validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("database DSN is required"))
		})

		It("rejects an out-of-range temperature", func() {
			cfg.LLM.Temperature = 1.5
			err := validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("temperature must be between"))
		})

		It("rejects a non-positive max tokens", func() {
			cfg.LLM.MaxTokens = 0
			err := validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("max tokens must be greater than 0"))
		})

		It("rejects thresholds where high does not exceed medium", func() {
			cfg.Workspace.HighConfidenceThreshold = 0.5
			cfg.Workspace.MediumConfidenceThreshold = 0.55
			err := validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("must exceed"))
		})
	})

	Describe("loadFromEnv", func() {
		var cfg *Config

		BeforeEach(func() {
			cfg = &Config{}
			os.Clearenv()
		})

		AfterEach(func() {
			os.Clearenv()
		})

		It("loads values from environment", func() {
			os.Setenv("DATABASE_DSN", "postgres://env/driftcore")
			os.Setenv("LLM_MODEL", "claude-sonnet-4")
			os.Setenv("WEBHOOK_PORT", "3000")
			os.Setenv("LOG_LEVEL", "debug")

			Expect(loadFromEnv(cfg)).To(Succeed())

			Expect(cfg.Database.DSN).To(Equal("postgres://env/driftcore"))
			Expect(cfg.LLM.Model).To(Equal("claude-sonnet-4"))
			Expect(cfg.Server.WebhookPort).To(Equal("3000"))
			Expect(cfg.Logging.Level).To(Equal("debug"))
		})

		It("leaves config untouched when nothing is set", func() {
			original := *cfg
			Expect(loadFromEnv(cfg)).To(Succeed())
			Expect(*cfg).To(Equal(original))
		})

		It("rejects a malformed LLM_RETRY_COUNT", func() {
			os.Setenv("LLM_RETRY_COUNT", "not-a-number")
			err := loadFromEnv(cfg)
			Expect(err).To(HaveOccurred())
		})
	})
})
