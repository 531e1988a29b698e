package studio

import (
	"fmt"

	"lumidecor/internal/catalog"
)

const (
	welcomeText        = "欢迎来到 LumiDecor AI V4.0 全能建筑工作室。在这里，您可以进行室内改造、建筑方案生成以及景观园林设计。"
	apologyText        = "抱歉，大师正在构思，暂时无法回应，请重试。"
	editDoneText       = "修改已完成。您可以继续调整，或导出最终成果。"
	editFailedText     = "重绘失败，请换个描述试试。"
	requestProductText = "我想看看这套方案里的具体产品。"
	productListText    = "这是为您挑选的单品清单，点击即可查看购买详情："
	comparisonText     = "拖动滑块查看细节"
)

func defaultInstruction(mode catalog.Mode, input catalog.InputType, style catalog.Style) string {
	if input == catalog.InputSketch {
		return fmt.Sprintf("将此草图渲染为【%s】风格的实景方案", style.Name)
	}
	return fmt.Sprintf("以【%s】风格重设计此%s", style.Name, mode.Subject())
}

func styleSelectionText(input catalog.InputType) string {
	return fmt.Sprintf("识别到您的%s。请选择一个设计风格以开始生成：", input.Label())
}

func galleryText(mode catalog.Mode, style catalog.Style) string {
	suffix := "点击查看方案详情："
	if mode == catalog.ModeInterior {
		suffix = "点击查看单品清单或局部修改："
	}
	return fmt.Sprintf("这是为您生成的【%s】方案。%s", style.Name, suffix)
}

func modeSwitchText(mode catalog.Mode) string {
	return fmt.Sprintf("已切换至【%s】模式。您可以开始上传或描述您的构思。", mode.Label())
}

func editRequestText(instruction string) string {
	return "🪄 局部修改: " + instruction
}
