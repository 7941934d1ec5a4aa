package servecmder

import (
	"bytes"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Serve Command", func() {
	var envFile string

	BeforeEach(func() {
		for _, k := range []string{"CHANNEL_ACCESS_TOKEN", "CHANNEL_SECRET", "GEMINI_API_KEY", "PORT", "DEBUG"} {
			GinkgoT().Setenv(k, "")
		}
		envFile = filepath.Join(GinkgoT().TempDir(), "missing.env")
	})

	It("refuses to start without credentials", func() {
		cmd := NewServeCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--env-file", envFile})

		err := cmd.Execute()

		Expect(err).To(MatchError(ContainSubstring("invalid configuration")))
		Expect(err.Error()).To(ContainSubstring("CHANNEL_SECRET is required"))
	})

	It("applies flag overrides on top of the environment", func() {
		GinkgoT().Setenv("CHANNEL_ACCESS_TOKEN", "access")
		GinkgoT().Setenv("CHANNEL_SECRET", "secret")
		GinkgoT().Setenv("GEMINI_API_KEY", "key")

		cmder := &serveCommander{}
		cmd := NewServeCmd()
		cmd.Flags().Set("port", "9090")
		cmder.envFile = envFile
		cmder.port = 9090
		cmder.debug = true

		cfg, err := cmder.loadConfig(cmd)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.ListenAddr()).To(Equal(":9090"))
		Expect(cfg.Debug).To(BeTrue())
	})

	It("rejects an out of range port", func() {
		GinkgoT().Setenv("CHANNEL_ACCESS_TOKEN", "access")
		GinkgoT().Setenv("CHANNEL_SECRET", "secret")
		GinkgoT().Setenv("GEMINI_API_KEY", "key")

		cmd := NewServeCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--env-file", envFile, "--port", "70000"})

		err := cmd.Execute()

		Expect(err).To(MatchError(ContainSubstring("out of range")))
	})
})
