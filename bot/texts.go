package bot

// Static product texts. Everything user-facing is Telegram HTML; dynamic
// values are inserted by the callers, escaped where user-supplied.
const (
	welcomeText = "🎨 <b>AI绘画搜索机器人</b>\n\n" +
		"欢迎使用AI绘画搜索机器人！\n\n" +
		"📖 <b>使用方法：</b>\n" +
		"• 发送 <code>/search 关键词</code> 搜索图片\n" +
		"• 直接发送关键词也可以搜索\n" +
		"• 例如：<code>/search wuwa</code> 或直接发送 <code>wuwa</code>\n\n" +
		"💡 <b>提示：</b>\n" +
		"• 支持中文和英文关键词\n" +
		"• 可以使用分页按钮浏览更多结果\n\n" +
		"🔗 数据来源：https://aitag.win/\n"

	helpText = "📖 <b>帮助信息</b>\n\n" +
		"<b>可用命令：</b>\n" +
		"/start - 显示欢迎信息\n" +
		"/search &lt;关键词&gt; - 搜索AI绘画作品\n" +
		"/sub &lt;关键词&gt; - 订阅关键词更新\n" +
		"/unsub &lt;关键词&gt; - 取消订阅\n" +
		"/subs - 查看我的订阅\n" +
		"/help - 显示此帮助信息\n\n" +
		"<b>使用示例：</b>\n" +
		"• <code>/search genshin impact</code>\n" +
		"• <code>/search 原神</code>\n" +
		"• 直接发送 <code>wuwa</code>\n\n" +
		"如有问题，请访问：https://aitag.win/\n"

	searchUsageText = "❌ 请提供搜索关键词\n\n" +
		"用法：<code>/search 关键词</code>\n" +
		"例如：<code>/search wuwa</code>"

	searchFailedText  = "❌ 搜索失败，请稍后重试"
	searchTimeoutText = "⏳ 搜索超时，请稍后重试"

	sessionExpiredText = "⌛ 结果已过期，请重新搜索"

	detailLoadingText    = "正在获取详情..."
	detailFailedText     = "❌ 获取详情失败，请重试"
	detailSendFailedText = "❌ 发送详情失败，可能是图片链接失效或消息过长"

	explainLoadingText = "正在解读参数..."

	unknownCommandText = "😕 未知命令\n\n发送 /help 查看可用命令"

	rateLimitedText = "⏳ 操作太快了，请稍后再试"
)

// Subscription texts. %s slots take the escaped keyword, %d slots a count.
const (
	subUsageText = "❌ 请提供要订阅的关键词\n\n" +
		"用法：<code>/sub 关键词</code>\n" +
		"例如：<code>/sub wuwa</code>"

	unsubUsageText = "❌ 请提供要取消的关键词\n\n" +
		"用法：<code>/unsub 关键词</code>"

	subAddedText  = "✅ 已订阅 <b>%s</b>\n\n有新作品时会在这里通知你。"
	subExistsText = "ℹ️ 你已经订阅过 <b>%s</b> 了"
	subLimitText  = "❌ 订阅数量已达上限（%d 个），请先用 /unsub 取消部分订阅"
	unsubOKText   = "✅ 已取消订阅 <b>%s</b>"
	unsubNoneText = "😕 你没有订阅过 <b>%s</b>"
	subsEmptyText = "📭 你还没有任何订阅\n\n用 <code>/sub 关键词</code> 添加一个吧"
	subErrorText  = "❌ 操作失败，请稍后重试"
)
