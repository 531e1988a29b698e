package studio_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumidecor/internal/catalog"
	"lumidecor/internal/gemini"
	"lumidecor/internal/intake"
	"lumidecor/internal/studio"
)

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func testReducer() studio.Reducer {
	n := 0
	return studio.Reducer{
		NewID: func() string {
			n++
			return fmt.Sprintf("m%d", n)
		},
		Now: func() time.Time { return fixedNow },
	}
}

func photo(id string) intake.Attachment {
	return intake.Attachment{ID: id, URL: "data:image/jpeg;base64,QQ==", Type: intake.TypeImage}
}

func reduce(t *testing.T, r studio.Reducer, st studio.State, act studio.Action) (studio.State, studio.Effect) {
	t.Helper()
	next, eff, err := r.Reduce(st, act)
	require.NoError(t, err)
	return next, eff
}

func last(st studio.State) studio.Message {
	return st.Messages[len(st.Messages)-1]
}

func TestInitial(t *testing.T) {
	st := testReducer().Initial()

	assert.Equal(t, catalog.ModeInterior, st.Mode)
	assert.Equal(t, catalog.InputPhoto, st.InputType)
	assert.False(t, st.Generating)
	assert.Nil(t, st.SelectedStyle)
	require.Len(t, st.Messages, 1)
	assert.Equal(t, studio.RoleAssistant, st.Messages[0].Role)
	assert.Contains(t, st.Messages[0].Content, "欢迎来到 LumiDecor AI V4.0")
}

func TestSubmit_AttachmentsWithoutStyleAskForStyle(t *testing.T) {
	r := testReducer()
	st := r.Initial()

	st, eff := reduce(t, r, st, studio.Submit{Attachments: []intake.Attachment{photo("a1")}})
	assert.Nil(t, eff)
	assert.False(t, st.Generating)
	require.Len(t, st.Messages, 3)

	user := st.Messages[1]
	assert.Equal(t, studio.RoleUser, user.Role)
	assert.Empty(t, user.Content)
	assert.Len(t, user.Attachments, 1)

	sel := st.Messages[2]
	assert.Equal(t, studio.TypeStyleSelection, sel.Type)
	assert.Equal(t, "识别到您的实景图。请选择一个设计风格以开始生成：", sel.Content)
	assert.Equal(t, user.ID, sel.ReplyTo)
	payload, ok := sel.StyleSelection()
	require.True(t, ok)
	assert.Equal(t, catalog.Styles(catalog.ModeInterior), payload.Styles)
}

func TestSubmit_SketchLabel(t *testing.T) {
	r := testReducer()
	st := reduceState(t, r, r.Initial(), studio.SetInputType{InputType: catalog.InputSketch})

	st, _ = reduce(t, r, st, studio.Submit{Attachments: []intake.Attachment{photo("a1")}})
	assert.Equal(t, "识别到您的草图。请选择一个设计风格以开始生成：", last(st).Content)
}

func TestSubmit_SelectedStyleStartsRedesign(t *testing.T) {
	r := testReducer()
	st := reduceState(t, r, r.Initial(), studio.SelectStyle{StyleID: "japandi"})
	require.NotNil(t, st.SelectedStyle)

	st, eff := reduce(t, r, st, studio.Submit{Attachments: []intake.Attachment{photo("a1"), photo("a2")}})
	assert.True(t, st.Generating)
	assert.Equal(t, "以【日式禅意】风格重设计此空间", last(st).Content)

	re, ok := eff.(studio.RedesignEffect)
	require.True(t, ok)
	assert.Equal(t, "japandi", re.Style.ID)
	assert.Equal(t, catalog.ModeInterior, re.Mode)
	assert.Len(t, re.Attachments, 2)
}

func TestSubmit_SketchDefaultContent(t *testing.T) {
	r := testReducer()
	st := r.Initial()
	st = reduceState(t, r, st, studio.SetMode{Mode: catalog.ModeExterior})
	st = reduceState(t, r, st, studio.SetInputType{InputType: catalog.InputSketch})
	st = reduceState(t, r, st, studio.SelectStyle{StyleID: "futurism"})

	st, _ = reduce(t, r, st, studio.Submit{Attachments: []intake.Attachment{photo("a1")}})
	assert.Equal(t, "将此草图渲染为【未来主义】风格的实景方案", last(st).Content)
}

func TestSubmit_TextOnlyAsksForAdvice(t *testing.T) {
	r := testReducer()
	st := r.Initial()
	before := st.Messages

	st, eff := reduce(t, r, st, studio.Submit{Text: "  推荐一款北欧风沙发  "})
	assert.True(t, st.Generating)
	assert.Equal(t, "推荐一款北欧风沙发", last(st).Content)

	adv, ok := eff.(studio.AdviceEffect)
	require.True(t, ok)
	assert.Equal(t, "推荐一款北欧风沙发", adv.Text)
	assert.Equal(t, before, adv.History)
}

func TestSubmit_RejectsWhileGenerating(t *testing.T) {
	r := testReducer()
	st, _ := reduce(t, r, r.Initial(), studio.Submit{Text: "hello"})
	require.True(t, st.Generating)

	next, eff, err := r.Reduce(st, studio.Submit{Text: "again"})
	assert.ErrorIs(t, err, studio.ErrGenerating)
	assert.Nil(t, eff)
	assert.Equal(t, st, next)
}

func TestSubmit_Empty(t *testing.T) {
	r := testReducer()
	st := r.Initial()

	next, _, err := r.Reduce(st, studio.Submit{Text: "   "})
	assert.ErrorIs(t, err, studio.ErrEmptySubmission)
	assert.Equal(t, st, next)
}

func TestPickStyle_ResubmitsSourceAttachments(t *testing.T) {
	r := testReducer()
	st, _ := reduce(t, r, r.Initial(), studio.Submit{Attachments: []intake.Attachment{photo("a1")}})
	sel := last(st)

	st, eff := reduce(t, r, st, studio.PickStyle{MessageID: sel.ID, StyleID: "scandinavian"})
	require.NotNil(t, st.SelectedStyle)
	assert.Equal(t, "scandinavian", st.SelectedStyle.ID)
	assert.True(t, st.Generating)

	user := last(st)
	assert.Equal(t, studio.RoleUser, user.Role)
	assert.Equal(t, "以【北欧风】风格重设计此空间", user.Content)
	require.Len(t, user.Attachments, 1)
	assert.Equal(t, "a1", user.Attachments[0].ID)

	re := eff.(studio.RedesignEffect)
	assert.Equal(t, "scandinavian", re.Style.ID)
}

func TestPickStyle_Errors(t *testing.T) {
	r := testReducer()
	st, _ := reduce(t, r, r.Initial(), studio.Submit{Attachments: []intake.Attachment{photo("a1")}})
	sel := last(st)

	_, _, err := r.Reduce(st, studio.PickStyle{MessageID: "missing", StyleID: "scandinavian"})
	assert.ErrorIs(t, err, studio.ErrUnknownMessage)

	_, _, err = r.Reduce(st, studio.PickStyle{MessageID: st.Messages[1].ID, StyleID: "scandinavian"})
	assert.ErrorIs(t, err, studio.ErrNotStyleSelection)

	next, _, err := r.Reduce(st, studio.PickStyle{MessageID: sel.ID, StyleID: "zen-stone"})
	assert.ErrorIs(t, err, studio.ErrUnknownStyle)
	assert.Nil(t, next.SelectedStyle)
}

func TestSelectStyle_WithoutAttachmentsOnlySelects(t *testing.T) {
	r := testReducer()
	st := r.Initial()

	next, eff := reduce(t, r, st, studio.SelectStyle{StyleID: "bohemian"})
	assert.Nil(t, eff)
	assert.Equal(t, "bohemian", next.SelectedStyle.ID)
	assert.Equal(t, st.Messages, next.Messages)

	_, _, err := r.Reduce(st, studio.SelectStyle{StyleID: "zen-stone"})
	assert.ErrorIs(t, err, studio.ErrUnknownStyle)
}

func TestSelectStyle_RegeneratesLatestAttachments(t *testing.T) {
	r := testReducer()
	st, _ := reduce(t, r, r.Initial(), studio.Submit{Attachments: []intake.Attachment{photo("old")}})
	st, _ = reduce(t, r, st, studio.Submit{Attachments: []intake.Attachment{photo("new")}})

	st, eff := reduce(t, r, st, studio.SelectStyle{StyleID: "mid-century"})
	re := eff.(studio.RedesignEffect)
	require.Len(t, re.Attachments, 1)
	assert.Equal(t, "new", re.Attachments[0].ID)
	assert.True(t, st.Generating)
}

func TestSetMode(t *testing.T) {
	r := testReducer()
	st := reduceState(t, r, r.Initial(), studio.SelectStyle{StyleID: "japandi"})

	st = reduceState(t, r, st, studio.SetMode{Mode: catalog.ModeLandscape})
	assert.Equal(t, catalog.ModeLandscape, st.Mode)
	assert.Nil(t, st.SelectedStyle)
	assert.Equal(t, "已切换至【景观园林】模式。您可以开始上传或描述您的构思。", last(st).Content)

	_, _, err := r.Reduce(st, studio.SetMode{Mode: "basement"})
	assert.Error(t, err)
	_, _, err = r.Reduce(st, studio.SetInputType{InputType: "video"})
	assert.Error(t, err)
}

func TestRedesignSettled(t *testing.T) {
	r := testReducer()
	style, _ := catalog.Lookup(catalog.ModeInterior, "scandinavian")
	st := r.Initial()
	st.Generating = true

	ok := reduceState(t, r, st, studio.RedesignSettled{
		Style:   style,
		Mode:    catalog.ModeInterior,
		Results: []studio.DesignResult{{Original: "o", Modified: "m"}},
	})
	assert.False(t, ok.Generating)
	msg := last(ok)
	assert.Equal(t, studio.TypeImageGallery, msg.Type)
	assert.Equal(t, "这是为您生成的【北欧风】方案。点击查看单品清单或局部修改：", msg.Content)
	g, isGallery := msg.Gallery()
	require.True(t, isGallery)
	assert.Len(t, g.Entries, 1)

	exterior := reduceState(t, r, st, studio.RedesignSettled{Style: style, Mode: catalog.ModeExterior})
	assert.Equal(t, "这是为您生成的【北欧风】方案。点击查看方案详情：", last(exterior).Content)

	failed := reduceState(t, r, st, studio.RedesignSettled{Style: style, Err: errors.New("boom")})
	assert.False(t, failed.Generating)
	assert.Equal(t, "抱歉，大师正在构思，暂时无法回应，请重试。", last(failed).Content)
	assert.Equal(t, studio.TypeText, last(failed).Type)
}

func TestAdviceSettled(t *testing.T) {
	r := testReducer()
	st := r.Initial()
	st.Generating = true

	links := []gemini.Link{{Title: "Sofa", URI: "https://shop.example/sofa"}}
	ok := reduceState(t, r, st, studio.AdviceSettled{Advice: gemini.Advice{Text: "推荐", Links: links}})
	assert.False(t, ok.Generating)
	assert.Equal(t, "推荐", last(ok).Content)
	assert.Equal(t, links, last(ok).GroundingURLs)

	failed := reduceState(t, r, st, studio.AdviceSettled{Err: errors.New("timeout")})
	assert.False(t, failed.Generating)
	assert.Equal(t, "抱歉，大师正在构思，暂时无法回应，请重试。", last(failed).Content)
}

func TestCompare(t *testing.T) {
	r := testReducer()
	st := galleryState(t, r)
	gallery := last(st)

	st = reduceState(t, r, st, studio.Compare{MessageID: gallery.ID, Index: 0})
	msg := last(st)
	assert.Equal(t, studio.TypeComparison, msg.Type)
	c, ok := msg.Comparison()
	require.True(t, ok)
	assert.Equal(t, studio.Comparison{Original: "orig", Modified: "mod"}, c)

	_, _, err := r.Reduce(st, studio.Compare{MessageID: gallery.ID, Index: 3})
	assert.ErrorIs(t, err, studio.ErrIndexOutOfRange)
	_, _, err = r.Reduce(st, studio.Compare{MessageID: st.Messages[0].ID})
	assert.ErrorIs(t, err, studio.ErrNotGallery)
}

func TestReduce_LogIsAppendOnly(t *testing.T) {
	r := testReducer()
	st := r.Initial()
	history := []studio.State{st}

	steps := []studio.Action{
		studio.Submit{Attachments: []intake.Attachment{photo("a1")}},
		studio.SetMode{Mode: catalog.ModeExterior},
		studio.SetInputType{InputType: catalog.InputSketch},
		studio.SelectStyle{StyleID: "modern-min"},
	}
	for _, act := range steps {
		next, _, err := r.Reduce(st, act)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(next.Messages), len(st.Messages))
		assert.Equal(t, st.Messages, next.Messages[:len(st.Messages)])
		st = next
		history = append(history, st)
	}

	assert.Len(t, history[0].Messages, 1, "earlier snapshots keep their own log")
}

func TestReduce_UnsupportedAction(t *testing.T) {
	r := testReducer()
	_, _, err := r.Reduce(r.Initial(), nil)
	assert.ErrorIs(t, err, studio.ErrUnsupportedAction)
}

func reduceState(t *testing.T, r studio.Reducer, st studio.State, act studio.Action) studio.State {
	t.Helper()
	next, _ := reduce(t, r, st, act)
	return next
}

// galleryState returns a state whose last message is an interior gallery with
// one entry carrying two products.
func galleryState(t *testing.T, r studio.Reducer) studio.State {
	t.Helper()
	style, _ := catalog.Lookup(catalog.ModeInterior, "scandinavian")
	st := r.Initial()
	st.Generating = true
	return reduceState(t, r, st, studio.RedesignSettled{
		Style: style,
		Mode:  catalog.ModeInterior,
		Results: []studio.DesignResult{{
			Original: "orig",
			Modified: "mod",
			Products: []studio.Product{{ID: "p1", Name: "北欧风 设计家具/饰件"}, {ID: "p2", Name: "现代艺术照明"}},
		}},
	})
}
