package logger_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/relloyd/eltpipe/logger"
)

var _ = Describe("Logger", func() {
	var l *logger.LoggerImpl
	var logOutput *bytes.Buffer

	BeforeEach(func() {
		l = logger.NewLogger("test-service", "debug", true)
		l.SetJSONFormat()
		logOutput = bytes.NewBufferString("")
		l.SetOutput(logOutput)
	})

	It("Should have `test-service` as service name", func() {
		l.Info("Testing")
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())
		Expect(actual["service"]).To(Equal("test-service"))
	})

	It("Should have info as log level", func() {
		l.Info("Testing")
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())
		Expect(actual["level"]).To(Equal("info"))
	})

	It("Should have warn as log level", func() {
		l.Warn("Testing")
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())
		Expect(actual["level"]).To(Equal("warning"))
	})

	It("Should have error as log level", func() {
		l.Error("Testing")
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())
		Expect(actual["level"]).To(Equal("error"))
		Expect(actual["stackTrace"]).ToNot(BeNil())
	})

	It("Should have `Testing` as msg", func() {
		l.Info("Testing")
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())
		Expect(actual["msg"]).To(Equal("Testing"))
	})

	It("Should tag entries with the step name", func() {
		l.WithStep("dbt-run").Info("Testing")
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())
		Expect(actual["step"]).To(Equal("dbt-run"))
		Expect(actual["service"]).To(Equal("test-service"))
	})
})
