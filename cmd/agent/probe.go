package agent

import "github.com/spf13/cobra"

func initProbeFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	p := defaultCfg.Probe

	f.String("probe.name", p.Name, "-> Advertised BLE name of the thermometer (设备广播名)")
	f.Duration("probe.scan-timeout", p.ScanTimeout, "-> How long one discovery scan runs (单次扫描时长)")
	f.Duration("probe.connect-timeout", p.ConnectTimeout, "-> Connection timeout (连接超时)")
	f.Duration("probe.poll-interval", p.PollInterval, "-> Notification poll interval (通知轮询间隔)")
	f.Duration("probe.retry-min", p.RetryMin, "-> Wait after the first failure (首次失败后的等待)")
	f.Duration("probe.retry-max", p.RetryMax, "-> Upper bound of the retry wait (重试等待上限)")
	f.Duration("probe.stale-timeout", p.StaleTimeout, "-> Reconnect when no data arrives for this long, 0 disables (无数据重连，0 关闭)")
	f.Bool("probe.reset-on-disconnect", p.ResetOnDisconnect, "-> Export NaN for all probes while disconnected (断开期间导出 NaN)")
}
